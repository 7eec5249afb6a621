package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChristopherRabotin/trajopt/ledger"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyBest  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the runs recorded in a ledger",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&ledgerPath, "ledger", "", "SQLite ledger of the runs")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of runs to list")
	historyCmd.Flags().StringVar(&historyBest, "best", "", "list the fittest runs of this scenario instead of the most recent ones")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if ledgerPath == "" {
		return errors.New("--ledger is required")
	}
	ctx := context.Background()
	l, err := ledger.Open(ctx, ledgerPath)
	if err != nil {
		return err
	}
	defer l.Close()
	var runs []ledger.Run
	if historyBest != "" {
		runs, err = l.Best(ctx, historyBest, historyLimit)
	} else {
		runs, err = l.Recent(ctx, historyLimit)
	}
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Println(r)
		if verbose {
			fmt.Printf("\tgenes: %v\n", r.Genes)
		}
	}
	return nil
}
