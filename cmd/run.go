/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gocombust/InputParameters"
	"github.com/notargets/gocombust/metrics"
	"github.com/notargets/gocombust/model_problems/ReactingFlow"
)

type ModelRun struct {
	CaseFile    string
	OutputDir   string
	Parallel    int
	Profile     string // cpu, mem or empty
	MetricsAddr string
	Verbose     bool
}

const exampleFile = `
########################################
Title: "Premixed methane flame"
Mesh:
  NCells: 200
  Length: 0.02
  Left: inlet
  Right: outlet
Species:
  - {name: CH4, W: 16.043, Cp: 2226, Hf: -4.667e6, sigma: 3.746, epsilonByK: 141.4, absorption: 6.6}
  - {name: O2, W: 31.999, Cp: 918, sigma: 3.458, epsilonByK: 107.4}
  - {name: CO2, W: 44.01, Cp: 846, Hf: -8.942e6, sigma: 3.763, epsilonByK: 244, absorption: 18.7}
  - {name: H2O, W: 18.015, Cp: 1864, Hf: -1.3423e7, sigma: 2.605, epsilonByK: 572.4, absorption: 12.1}
  - {name: N2, W: 28.014, Cp: 1040, sigma: 3.621, epsilonByK: 97.53}
inertSpecie: N2
fuel: CH4
energy: h
combustion:
  model: singleStepArrhenius
  A: 2.1e8
  Ta: 1.5e4
  oxidiser: O2
  reactants: {CH4: 1, O2: 2}
  products: {CO2: 1, H2O: 2}
radiation: {model: opticallyThin, TInf: 300}
initial: {U: [0.4, 0, 0], T: 300, p: 101325, massFractions: {CH4: 0.055, O2: 0.22}}
boundary:
  left: {massFractions: {CH4: 0.055, O2: 0.22}}
PIMPLE: {nOuterCorrectors: 2, nCorrectors: 2}
time: {deltaT: 1.e-5, endTime: 0.01, writeInterval: 0.001}
########################################
`

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a reacting flow case",
	Long: `
Marches a reacting flow case from its YAML case file to endTime, writing a
fields.yaml checkpoint in a time directory every writeInterval.

gocombust run -c case.yaml -o output`,
	Run: func(cmd *cobra.Command, args []string) {
		mr := &ModelRun{
			CaseFile:    viper.GetString("case"),
			OutputDir:   viper.GetString("output"),
			Parallel:    viper.GetInt("parallel"),
			Profile:     viper.GetString("profile"),
			MetricsAddr: viper.GetString("metricsAddr"),
			Verbose:     viper.GetBool("verbose"),
		}
		ip, err := processInput(mr)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			if len(mr.CaseFile) == 0 {
				fmt.Printf("Example File:%s\n", exampleFile)
			}
			os.Exit(1)
		}
		log := NewLogger(mr.Verbose)
		if err = Run(mr, ip, log); err != nil {
			log.WithError(err).Fatal("run failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	flags := RunCmd.Flags()
	flags.StringP("case", "c", "", "YAML case file")
	flags.StringP("output", "o", "output", "directory receiving the time directories")
	flags.IntP("parallel", "p", runtime.NumCPU(), "number of go routines for cell loops")
	flags.String("profile", "", "write a cpu or mem profile to the output directory")
	flags.String("metricsAddr", "", "serve prometheus metrics on this address, like :9090")
	flags.BoolP("verbose", "v", false, "debug level logging, every linear solve")
	for _, name := range []string{"case", "output", "parallel", "profile", "metricsAddr", "verbose"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func NewLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func processInput(mr *ModelRun) (ip *InputParameters.CaseParameters, err error) {
	if len(mr.CaseFile) == 0 {
		return nil, fmt.Errorf("must supply a case file (-c, --case) in YAML format")
	}
	var data []byte
	if data, err = os.ReadFile(mr.CaseFile); err != nil {
		return
	}
	ip = &InputParameters.CaseParameters{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", mr.CaseFile, err)
	}
	if err = ip.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", mr.CaseFile, err)
	}
	return
}

func Run(mr *ModelRun, ip *InputParameters.CaseParameters, log *logrus.Logger) (err error) {
	switch mr.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(mr.OutputDir), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(mr.OutputDir), profile.Quiet).Stop()
	default:
		return fmt.Errorf("unknown profile %q, have cpu or mem", mr.Profile)
	}
	ip.Print()
	var c *ReactingFlow.Case
	if c, err = ReactingFlow.NewCase(ip, mr.Parallel, log); err != nil {
		return
	}
	c.Writer = ReactingFlow.NewWriter(mr.OutputDir, ip.Time.WriteInterval)
	collector := metrics.NewCollector(c.RunID.String())
	c.Metrics = collector
	if mr.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(mr.MetricsAddr, mux); err != nil {
				log.WithError(err).Error("metrics endpoint stopped")
			}
		}()
		log.WithField("addr", mr.MetricsAddr).Info("serving metrics")
	}
	return c.Solve()
}
