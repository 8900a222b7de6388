package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved documents",
	Long:  "List the registered document names. The active document is marked with '*'.",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	adapter, closeStore, err := openAdapter(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	names, err := adapter.ListNames(ctx)
	if err != nil {
		return err
	}
	active, err := adapter.Active(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "No saved documents")
		return nil
	}
	for _, name := range names {
		marker := "  "
		if name == active {
			marker = "* "
		}
		fmt.Fprintln(out, marker+name)
	}
	return nil
}
