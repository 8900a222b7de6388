package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/validation"
)

var showCheck bool

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a saved document",
	Long:  "Print the saved document as JSON, or with --check list its formatting advisories.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showCheck, "check", false, "List formatting advisories instead of the JSON")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	adapter, closeStore, err := openAdapter(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	doc, err := adapter.Load(ctx, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if showCheck {
		advisories := validation.Check(doc)
		if len(advisories) == 0 {
			fmt.Fprintln(out, "No formatting issues")
			return nil
		}
		for _, a := range advisories {
			if a.ItemID != "" {
				fmt.Fprintf(out, "%s [%s]: %s\n", a.Field, a.ItemID, a.Message)
			} else {
				fmt.Fprintf(out, "%s: %s\n", a.Field, a.Message)
			}
		}
		return nil
	}

	data, err := adapter.ExportJSON(doc)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}
