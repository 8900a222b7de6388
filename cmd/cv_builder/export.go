package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export a saved document to PDF, LaTeX, JSON or text",
	Long: "Render a saved document and write it to --out. When --out is empty or a directory, " +
		"the file is named CV_<Name>.<ext> and written to it (default CV_EXPORT_DIR).",
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "pdf", "Output format: pdf, tex, json or txt")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file or directory")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	adapter, closeStore, err := openAdapter(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	doc, err := adapter.Load(ctx, args[0])
	if err != nil {
		return err
	}

	dir, fileName := cfg.ExportDir, ""
	if exportOut != "" {
		if info, statErr := os.Stat(exportOut); statErr == nil && info.IsDir() {
			dir = exportOut
		} else {
			dir, fileName = filepath.Dir(exportOut), filepath.Base(exportOut)
		}
	}

	artifact, err := newExporter(adapter).Export(ctx, doc, format, fileName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, artifact.FileName)
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(artifact.Data))
	return nil
}
