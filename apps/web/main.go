package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	echoapi "github.com/virtualcampus/campus/apps/web/echo"
	"github.com/virtualcampus/campus/core"
	"github.com/virtualcampus/campus/core/session"
	backendsvc "github.com/virtualcampus/campus/services/backend"
	logsvc "github.com/virtualcampus/campus/services/logger"
	metricsvc "github.com/virtualcampus/campus/services/metrics"
	localstore "github.com/virtualcampus/campus/storage/local"
)

func main() {
	conf, err := core.LoadConfig()
	if core.IsConfigurationError(err) {
		// the app cannot do anything useful; serve the diagnostic screen instead
		log.Fatal(serveConfigDiagnostic(conf, err))
	} else if err != nil {
		log.Fatalf("loading config: %+v", err)
	}

	if err := run(conf); err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(conf *core.Config) error {
	std := log.New(os.Stdout, "WEB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewConsoleLogger(conf)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	local, err := localstore.Open(conf.LocalStatePath)
	if err != nil {
		return errors.Wrap(err, "opening local state")
	}

	backend := backendsvc.NewClient(conf, local, logger)
	defer backend.Close()

	metrics := metricsvc.NewPrometheus()
	store := session.NewStore(backend, logger, metrics)
	gateway := session.NewGateway(backend, local, logger, metrics)
	verifier := session.NewVerifier(backend, local, logger, metrics, conf.Server.VerifyRedirectDelay)
	verifier.OnRedirect(func() {
		logger.Info("verification complete, clients may enter the dashboard")
	})

	listener := session.NewListener(backend, store, logger, metrics)
	listener.OnConfirmed(verifier.OnConfirmed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	// first session resolution; consumers block on the store's readiness, not
	// on this call
	store.Init(ctx)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Addr,
		Store:          store,
		Gateway:        gateway,
		Verifier:       verifier,
		Backend:        backend,
		Logger:         logger,
		Metrics:        metrics,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
	})
	go app.Start()
	logger.Info(fmt.Sprintf("%s listening on %s", conf.AppName, conf.Server.Addr))

	sig := <-shutdown
	logger.Info(fmt.Sprintf("shutting down on %v", sig))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer stopCancel()
	return errors.Wrap(app.Stop(stopCtx), "stopping server")
}

// serveConfigDiagnostic blocks serving a plain screen that names the missing
// settings. Nothing else is reachable until the configuration is fixed.
func serveConfigDiagnostic(conf *core.Config, err error) error {
	cErr := core.AsConfigurationError(err)
	log.Printf("missing required settings: %v", cErr.Missing)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "%s is not configured.\n\nMissing settings:\n", conf.AppName)
		for _, name := range cErr.Missing {
			fmt.Fprintf(w, "  - %s\n", name)
		}
		fmt.Fprint(w, "\nSet them in the environment or in config/.env.* and restart.\n")
	})
	return http.ListenAndServe(conf.Server.Addr, mux)
}
