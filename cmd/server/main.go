package main

import (
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/objbrowse/backend/internal/config"
	"github.com/objbrowse/backend/internal/logging"
	"github.com/objbrowse/backend/internal/server"
	"go.uber.org/zap"
)

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	root := flag.String("root", "", "Initial browse root (overrides BROWSE_ROOT)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *root != "" {
		cfg.Browser.Root = *root
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log = logging.NewDefault()
	}

	// The quit command terminates the process; no confirmation round trip.
	quitChan := make(chan struct{})
	var once sync.Once
	quit := func() {
		once.Do(func() { close(quitChan) })
	}

	srv := server.New(cfg, quit, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(cfg.Server.Host + ":" + cfg.Server.Port); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Info("shutting down")
		srv.Close() //nolint:errcheck
	case <-quitChan:
		log.Info("terminated by client quit command")
		srv.Close() //nolint:errcheck
	case err := <-errChan:
		log.Fatal("server error", zap.Error(err))
	}
}
