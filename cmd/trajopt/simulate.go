package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ChristopherRabotin/trajopt"
	"github.com/spf13/cobra"
)

var (
	genesArg    string
	summaryFile string
	exportPath  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate one transfer and print its outcome",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&genesArg, "genes", "", "comma separated genes: launch Δv x,y then day, Δv x,y of both maneuvers")
	simulateCmd.Flags().StringVar(&summaryFile, "summary", "", "simulate the transfer of a previous summary TOML file")
	simulateCmd.Flags().StringVar(&exportPath, "export", "", "export the trajectory as CSV to this file")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	scn, eph, err := loadScenario()
	if err != nil {
		return err
	}
	c, err := readChromosome()
	if err != nil {
		return err
	}
	if !c.InBounds() {
		fmt.Fprintf(os.Stderr, "[WARNING] genes out of the optimization bounds: %s\n", c)
	}
	if err := trajopt.NewEvaluator(trajopt.NewSimulator(scn.Config, eph)).Evaluate(&c); err != nil {
		return err
	}
	fmt.Print(trajopt.NewSummary(c))
	if exportPath != "" {
		return trajopt.NewExporter(scn.Config, eph, newLogger(scn.Name)).ExportFile(exportPath, c)
	}
	return nil
}

func readChromosome() (trajopt.Chromosome, error) {
	switch {
	case summaryFile != "":
		f, err := os.Open(summaryFile)
		if err != nil {
			return trajopt.Chromosome{}, err
		}
		defer f.Close()
		s, err := trajopt.ReadSummary(f)
		if err != nil {
			return trajopt.Chromosome{}, err
		}
		return s.Chromosome(), nil
	case genesArg != "":
		return parseGenes(genesArg)
	default:
		return trajopt.Chromosome{}, errors.New("either --genes or --summary is required")
	}
}

func parseGenes(arg string) (trajopt.Chromosome, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != trajopt.GeneCount {
		return trajopt.Chromosome{}, fmt.Errorf("expected %d genes, got %d", trajopt.GeneCount, len(parts))
	}
	var genes [trajopt.GeneCount]float64
	for i, part := range parts {
		g, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return trajopt.Chromosome{}, fmt.Errorf("gene #%d: %w", i, err)
		}
		genes[i] = g
	}
	return trajopt.NewChromosome(genes), nil
}
