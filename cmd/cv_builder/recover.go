package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Register saved snapshots missing from the document list",
	Long: "A save interrupted between writing the snapshot and updating the name list leaves " +
		"an orphaned snapshot. recover adds every orphan back to the list.",
	Args: cobra.NoArgs,
	RunE: runRecover,
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	adapter, closeStore, err := openAdapter(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	found, err := adapter.Rediscover(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(found) == 0 {
		fmt.Fprintln(out, "Nothing to recover")
		return nil
	}
	for _, name := range found {
		fmt.Fprintln(out, "Recovered "+name)
	}
	return nil
}
