package main

import (
	"fmt"

	"github.com/ChristopherRabotin/trajopt"
	"github.com/ChristopherRabotin/trajopt/tools"
	"github.com/spf13/cobra"
)

var tofs []float64

var lambertCmd = &cobra.Command{
	Use:   "lambert",
	Short: "Print the Lambert transfers of the scenario and how they fly",
	RunE:  runLambert,
}

func init() {
	lambertCmd.Flags().Float64SliceVar(&tofs, "tof", nil, "times of flight in days (defaults to a scan around the Hohmann transfer)")
	rootCmd.AddCommand(lambertCmd)
}

func runLambert(cmd *cobra.Command, args []string) error {
	scn, eph, err := loadScenario()
	if err != nil {
		return err
	}
	conf := scn.Config
	var seeds []tools.Seed
	if len(tofs) == 0 {
		tof, err := tools.HohmannTOF(eph, conf)
		if err != nil {
			return err
		}
		fmt.Printf("Hohmann time of flight: %.1f days\n", tof)
		if seeds, err = tools.ScanSeeds(eph, conf, 0.5*tof, 1.5*tof, 10, 5); err != nil {
			return err
		}
	} else if seeds, err = tools.LambertSeeds(eph, conf, tofs...); err != nil {
		return err
	}
	eval := trajopt.NewEvaluator(trajopt.NewSimulator(conf, eph))
	for _, seed := range seeds {
		c := seed.Chromosome
		if err := eval.Evaluate(&c); err != nil {
			return err
		}
		fmt.Printf("%s\n\t%s (fitness %.6f)\n", seed, c.Result, c.Fitness)
	}
	return nil
}
