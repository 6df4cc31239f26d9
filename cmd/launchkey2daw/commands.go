package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/james-see/launchkey2daw/pkg/api"
	"github.com/james-see/launchkey2daw/pkg/bridge"
	"github.com/james-see/launchkey2daw/pkg/config"
	"github.com/james-see/launchkey2daw/pkg/logging"
	"github.com/james-see/launchkey2daw/pkg/ports"
	"github.com/james-see/launchkey2daw/pkg/probe"
	"github.com/james-see/launchkey2daw/pkg/recorder"
	"github.com/james-see/launchkey2daw/pkg/translator"
	"github.com/james-see/launchkey2daw/pkg/tui"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	"golang.org/x/sync/errgroup"
)

func setupLogging() (*slog.Logger, func() error, error) {
	if useTUI && logFile == "" {
		// the monitor owns the terminal
		logger := logging.New(io.Discard, debug)
		slog.SetDefault(logger)
		return logger, func() error { return nil }, nil
	}
	return logging.Setup(logFile, debug)
}

func runBridge(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := cfg.Engine()
	if err != nil {
		return err
	}
	if inPort == "" {
		inPort = cfg.Input
	}
	if outPort == "" {
		outPort = cfg.Output
	}
	if outPort == "" {
		outPort = config.DefaultOutput
	}

	drv, err := ports.Open()
	if err != nil {
		return err
	}
	defer func() { _ = drv.Close() }()

	in, err := drv.FindIn(inPort)
	if err != nil {
		return err
	}
	out, virtual, err := drv.OpenOut(outPort)
	if err != nil {
		return err
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	opts := []bridge.Option{bridge.WithLogger(logger), bridge.Quiet(quiet)}
	var rec *recorder.Recorder
	if recordPath != "" {
		rec = recorder.New()
		opts = append(opts, bridge.WithRecorder(rec))
	}
	b := bridge.New(engine, send, opts...)

	stop, err := b.Listen(in)
	if err != nil {
		return err
	}
	defer stop()

	logger.Info("bridge running",
		"in", in.String(),
		"out", out.String(),
		"virtual", virtual,
		"mappings", engine.Table().Len(),
		"bank", engine.Banks().Current().Name)
	if !useTUI {
		fmt.Printf("Listening on %s, sending to %s. Press Ctrl+C to stop.\n", in.String(), out.String())
	}

	ctx, cancelSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancelSignals()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if apiAddr != "" {
		g.Go(func() error {
			logger.Info("api listening", "addr", apiAddr)
			return api.New(engine).Serve(ctx, apiAddr)
		})
	}
	if useTUI {
		g.Go(func() error {
			defer cancel()
			return tui.Run(ctx, b, fmt.Sprintf("%s → %s", in.String(), out.String()))
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	err = g.Wait()

	st := engine.Stats()
	logger.Info("bridge stopped",
		"received", st.Received,
		"emitted", st.Emitted,
		"passthrough", st.Passthrough,
		"dropped", st.Dropped,
		"errors", st.Errors,
		"send_errors", b.SendErrors())

	if rec != nil {
		if serr := rec.Save(recordPath); serr != nil {
			logger.Error("failed to save recording", "path", recordPath, "error", serr)
		} else {
			fmt.Printf("Recorded %d messages to %s\n", rec.Len(), recordPath)
		}
	}
	return err
}

func runPorts(cmd *cobra.Command, args []string) error {
	drv, err := ports.Open()
	if err != nil {
		return err
	}
	defer func() { _ = drv.Close() }()

	ins, err := drv.Inputs()
	if err != nil {
		return err
	}
	outs, err := drv.Outputs()
	if err != nil {
		return err
	}

	fmt.Println("Inputs:")
	printPorts(ins)
	fmt.Println("Outputs:")
	printPorts(outs)
	return nil
}

func printPorts(names []string) {
	if len(names) == 0 {
		fmt.Println("  (none)")
		return
	}
	for i, n := range names {
		fmt.Printf("  [%d] %s\n", i, n)
	}
}

func runProbe(cmd *cobra.Command, args []string) error {
	if inPort == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		inPort = cfg.Input
	}

	drv, err := ports.Open()
	if err != nil {
		return err
	}
	defer func() { _ = drv.Close() }()

	in, err := drv.FindIn(inPort)
	if err != nil {
		return err
	}
	stop, err := probe.Listen(in, os.Stdout)
	if err != nil {
		return err
	}
	defer stop()

	fmt.Printf("Probing %s. Press Ctrl+C to stop.\n", in.String())
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	return nil
}

func runTranslate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := cfg.Engine()
	if err != nil {
		return err
	}

	for _, arg := range args {
		raw, err := translator.ParseHex(arg)
		if err != nil {
			return err
		}
		act, err := engine.Handle(raw)
		switch {
		case err != nil:
			fmt.Printf("%-9s  error: %v\n", translator.FormatHex(raw), err)
		case act.Type == translator.ActionDrop:
			fmt.Printf("%-9s  drop (bank %s)\n", translator.FormatHex(raw), engine.Banks().Current().Name)
		default:
			fmt.Printf("%-9s  %-11s  %-9s  %s\n", translator.FormatHex(raw), act.Type, translator.FormatHex(act.Bytes()), act.Message().String())
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := cfg.Engine()
	if err != nil {
		return err
	}

	fmt.Printf("Starting launchkey2daw API server on %s...\n", serveAddr)
	fmt.Printf("Swagger docs available at http://localhost%s/swagger/index.html\n", serveAddr)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := api.New(engine).Serve(ctx, serveAddr); err != nil {
		return err
	}
	logger.Info("api stopped")
	return nil
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d mappings, %d banks, %d bank-select controls\n",
		args[0], len(cfg.Mappings), len(cfg.BankList()), len(cfg.BankSelect))
	return nil
}

func runConfigDefault(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if outputFile != "" {
		if err := cfg.Save(outputFile); err != nil {
			return err
		}
		fmt.Printf("Wrote default mapping to %s\n", outputFile)
		return nil
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
