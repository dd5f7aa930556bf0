package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/WangYihang/Exposure-Crawler/pkg/common"
	"github.com/WangYihang/Exposure-Crawler/pkg/infrastructure/metrics"
	"github.com/WangYihang/Exposure-Crawler/pkg/interface/cli"
	"github.com/WangYihang/Exposure-Crawler/pkg/interface/presenter"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jessevdk/go-flags"
)

// exitInterrupted is the conventional status for a run stopped by SIGINT
const exitInterrupted = 130

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	config, err := cli.ParseFlags()
	if err != nil {
		// go-flags already printed its own parse errors
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}

	if config.Version {
		fmt.Println(common.PV.String())
		return 0
	}

	// Assemble use case with all dependencies
	runtime, err := cli.NewAssembler(config).AssembleUseCase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer runtime.Close()

	logger := runtime.Logger

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			logger.Warn("Received interrupt signal, shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if config.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, config.MetricsAddr, runtime.Registry); err != nil {
				logger.WithError(err).Error("Metrics server stopped")
			}
		}()
		logger.Infof("Serving metrics on http://%s/metrics", config.MetricsAddr)
	}

	if config.ShowDashboard {
		dashboard := presenter.NewDashboard()
		runtime.UseCase.RegisterMetricsObserver(dashboard)

		// Run dashboard in TUI mode
		p := tea.NewProgram(dashboard, tea.WithAltScreen(), tea.WithOutput(os.Stderr))

		// Run use case in background
		done := make(chan error, 1)
		go func() {
			done <- runtime.UseCase.Execute(ctx)
			p.Quit()
		}()

		// Start TUI
		if _, err := p.Run(); err != nil {
			logger.WithError(err).Error("TUI error")
		}
		// Leaving the dashboard early stops the run
		cancel()
		err = <-done
	} else {
		err = runtime.UseCase.Execute(ctx)
	}

	if !config.NoProgress || config.ShowDashboard {
		presenter.PrintSummary(os.Stderr, presenter.Summary{
			Metrics:    runtime.UseCase.GetMetrics(),
			Domains:    len(runtime.UseCase.Results()),
			OutputFile: config.Args.OutFile,
			Err:        err,
		})
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		logger.Error(err)
		return 1
	}
}
