package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importSaveAs string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a CV from a JSON file",
	Long: "Check and normalize a JSON CV file. With --save-as the result is saved under that " +
		"name and becomes the active document; otherwise the normalized JSON is printed.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importSaveAs, "save-as", "", "Save the imported document under this name")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	payload, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	adapter, closeStore, err := openAdapter(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	doc, err := adapter.Import(payload)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if importSaveAs == "" {
		data, err := adapter.ExportJSON(doc)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if err := adapter.Save(ctx, importSaveAs, doc); err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %s as %q\n", args[0], importSaveAs)
	return nil
}
