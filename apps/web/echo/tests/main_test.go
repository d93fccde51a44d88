package tests

import (
	"log"
	"os"
	"testing"

	"github.com/virtualcampus/campus/core"
)

func TestMain(m *testing.M) {
	os.Setenv("ENV", "TEST")
	os.Setenv("TEST_DEBUG", "false")
	os.Setenv("TEST_BACKENDURL", "http://localhost:54321")
	os.Setenv("TEST_BACKENDANONKEY", "test-anon-key")
	if _, err := core.LoadConfig(); err != nil {
		log.Fatalf("loading config: %v", err)
	}
	os.Exit(m.Run())
}
