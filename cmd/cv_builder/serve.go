package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editor API server",
	Long: "Start an HTTP server that exposes the editing session: document edits, undo/redo, " +
		"named saves, import, export, enhancement, preview and a server-sent event stream.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from CV_PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	jwtCfg, err := cfg.JWT()
	if err != nil {
		return err
	}

	adapter, closeStore, err := openAdapter(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	enhancer, closeEnhancer, err := newEnhancer(ctx)
	if err != nil {
		return err
	}
	defer closeEnhancer()

	session := editor.NewSession(ctx, adapter, editor.Options{
		Enhancer: enhancer,
		Exporter: newExporter(adapter),
		Logger:   appLog,
	})
	srv := server.New(session, server.Options{
		Port:   cfg.Port,
		JWT:    jwtCfg,
		Logger: appLog,
	})
	return srv.Start(ctx)
}
