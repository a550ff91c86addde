package cli

import (
	"fmt"

	"github.com/pgrudzien12/pcb-maker/pkg/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pcb-maker",
	Short: "PCB fabrication pipeline CLI",
	Long:  `pcb-maker runs a declarative fabrication pipeline over KiCad output to produce isolation paths and G-code.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(makeCmd)
	rootCmd.AddCommand(stagesCmd)
	rootCmd.AddCommand(doctorCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pcb-maker %s\n", version.Version)
	},
}
