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
	"sort"

	"github.com/spf13/cobra"

	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/models/combustion"
	"github.com/notargets/gocombust/models/fvoptions"
	"github.com/notargets/gocombust/models/radiation"
	"github.com/notargets/gocombust/models/transport"
	"github.com/notargets/gocombust/models/turbulence"
	"github.com/notargets/gocombust/thermo"
)

// InfoCmd lists the models a case file can select
var InfoCmd = &cobra.Command{
	Use:   "info",
	Short: "List the available models and solvers",
	Run: func(cmd *cobra.Command, args []string) {
		energies := make([]string, 0, len(thermo.EnergyVariableNames))
		for name := range thermo.EnergyVariableNames {
			energies = append(energies, name)
		}
		sort.Strings(energies)
		fmt.Printf("%v\t= energy\n", energies)
		fmt.Printf("%v\t= combustion\n", combustion.ModelNames)
		fmt.Printf("%v\t\t= radiation\n", radiation.ModelNames)
		fmt.Printf("%v\t\t= transport\n", transport.ModelNames)
		fmt.Printf("%v\t\t= turbulence\n", turbulence.ModelNames)
		fmt.Printf("%v\t= fvOptions\n", fvoptions.TypeNames)
		fmt.Printf("%v\t= solvers\n", fvm.SolverNames())
	},
}

func init() {
	rootCmd.AddCommand(InfoCmd)
}
