// Package main is the entry point for the launchkey2daw API server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/james-see/launchkey2daw/pkg/api"
	"github.com/james-see/launchkey2daw/pkg/config"
	"github.com/james-see/launchkey2daw/pkg/logging"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	configPath := flag.String("config", "", "Mapping file (default: built-in mapping)")
	debug := flag.Bool("debug", false, "Debug logging")
	flag.Parse()

	logger, _, err := logging.Setup("", *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging error: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
	}
	engine, err := cfg.Engine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting launchkey2daw API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := api.New(engine).Serve(ctx, fmt.Sprintf(":%d", *port)); err != nil {
		logger.Error("server error", "error", err)
		cancel()
		os.Exit(1)
	}
}
