package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/project-scout/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing scan, project, employee, and matching endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	a, err := buildApp(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer a.close()

	srv := server.New(server.Config{Port: cfg.Port}, server.Deps{
		DB:           a.db,
		Orchestrator: a.orchestrator,
		Deduper:      a.deduper,
		Index:        a.index,
		Matcher:      a.matcher,
		Logger:       a.log.Named("http"),
	})

	return srv.Start()
}
