package main

import (
	"log"
	"os"

	"github.com/virtualcampus/campus/core"
	"github.com/virtualcampus/campus/core/session"
	backendsvc "github.com/virtualcampus/campus/services/backend"
	logsvc "github.com/virtualcampus/campus/services/logger"
	localstore "github.com/virtualcampus/campus/storage/local"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.LoadConfig()
	errAndDie(err)

	local, err := localstore.Open(conf.LocalStatePath)
	errAndDie(err)

	backend := backendsvc.NewClient(conf, local, logsvc.NewConsoleLogger(conf))
	defer backend.Close()

	// start CLI
	cli := commandLine{
		gateway: session.NewGateway(backend, local, logsvc.NewConsoleLogger(conf), nil),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
