package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ChristopherRabotin/trajopt"
	kitlog "github.com/go-kit/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	scenarioFile string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:          "trajopt",
	Short:        "Genetic design of interplanetary transfers",
	Long:         "trajopt searches launch and mid-course maneuvers which bring a spacecraft close to a target planet, using a genetic algorithm over an n-body simulation.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&scenarioFile, "scenario", "", "scenario TOML file (defaults are used otherwise)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "really verbose (esp. for configuration)")
}

func initConfig() {
	if scenarioFile != "" {
		viper.SetConfigFile(scenarioFile)
		viper.SetConfigType("toml")
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("%s: Error %s", scenarioFile, err)
		}
	}
	viper.SetEnvPrefix("TRAJOPT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// loadScenario reads the scenario and its ephemeris.
func loadScenario() (trajopt.Scenario, trajopt.Ephemeris, error) {
	scn, err := trajopt.LoadScenario(viper.GetViper())
	if err != nil {
		return scn, nil, err
	}
	if scn.Name == "" {
		scn.Name = "default"
		if scenarioFile != "" {
			scn.Name = strings.TrimSuffix(filepath.Base(scenarioFile), filepath.Ext(scenarioFile))
		}
	}
	eph, err := scn.NewEphemeris()
	if err != nil {
		return scn, nil, err
	}
	if verbose {
		conf := scn.Config
		log.Printf("[conf] %s: %s -> %s from %s to %s (step %s, max %.0f days)", scn.Name, conf.Departure, conf.Target, conf.Start.Format(trajopt.DateTimeFormat), conf.End.Format(trajopt.DateTimeFormat), conf.Step, conf.MaxDays)
		log.Printf("[conf] bodies: %v, ephemeris: %s", conf.Bodies, scn.Ephemeris)
		log.Printf("[conf] population %d, %d generations, seed %d", conf.PopulationSize, conf.Generations, conf.Seed)
	}
	return scn, eph, nil
}

func newLogger(scenario string) kitlog.Logger {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	return kitlog.With(logger, "scenario", scenario)
}
