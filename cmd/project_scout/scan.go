package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/project-scout/internal/observability"
)

var scanDays int

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a scan from the command line",
	Long:  `Scan the configured project boards once, printing progress to stdout. Ctrl-C requests cancellation; already stored projects are kept.`,
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanDays, "days", 0, "How many days back to scan (overrides config)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer a.close()

	scanID, events, err := a.orchestrator.Start(ctx, scanDays)
	if err != nil {
		return err
	}

	// Ctrl-C flags the scan for cancellation; the orchestrator winds down at
	// the next card boundary and the event channel closes.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		a.orchestrator.Registry().Cancel(scanID)
	}()
	defer signal.Stop(interrupt)

	printer := observability.NewPrinter(os.Stdout)
	for ev := range events {
		printer.PrintEvent(ev)
	}

	last, err := a.db.GetLastScan(ctx)
	if err != nil {
		return err
	}
	printer.PrintLastScan(last)
	return nil
}
