package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapcnc/snappost/machine"
)

var machinesFile string

var machinesCmd = &cobra.Command{
	Use:   "machines",
	Short: "List known machine and toolhead profiles",
	RunE:  runMachines,
}

func init() {
	rootCmd.AddCommand(machinesCmd)
	machinesCmd.Flags().StringVar(&machinesFile, "machines-file", "", "extra machine profiles (TOML)")
}

func runMachines(cmd *cobra.Command, args []string) error {
	reg := machine.NewRegistry()
	if machinesFile != "" {
		if err := reg.MergeFile(machinesFile); err != nil {
			return err
		}
	}

	fmt.Printf("%-22s %-38s %s\n", "MACHINE", "NAME", "ENVELOPE (mm)")
	for _, key := range reg.MachineKeys() {
		p, _ := reg.Machine(key)
		fmt.Printf("%-22s %-38s %g x %g x %g\n",
			key, p.Name, p.Envelope.X, p.Envelope.Y, p.Envelope.Z)
	}

	fmt.Println()
	fmt.Printf("%-22s %s\n", "TOOLHEAD", "SPINDLE (rpm)")
	for _, key := range reg.ToolheadKeys() {
		th, _ := reg.Toolhead(key)
		fmt.Printf("%-22s %g - %g\n", key, th.MinRPM, th.MaxRPM)
	}
	return nil
}
