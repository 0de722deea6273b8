package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/snapcnc/snappost/export"
	"github.com/snapcnc/snappost/gcode"
	"github.com/snapcnc/snappost/machine"
	"github.com/snapcnc/snappost/vm"
)

var checkFlags struct {
	machine      string
	boundaries   string
	machinesFile string
}

var checkCmd = &cobra.Command{
	Use:   "check <program.nc>",
	Short: "Replay a G-code program and check its travel",
	Long: `Replays an already written program and reports the coordinate
extents it reaches. With --machine or --boundaries the travel is also
checked against the working envelope, and the command fails when any
axis exceeds it.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	f := checkCmd.Flags()
	f.StringVar(&checkFlags.machine, "machine", "", "machine profile for the envelope")
	f.StringVar(&checkFlags.boundaries, "boundaries", "", `envelope override as "x,y,z"`)
	f.StringVar(&checkFlags.machinesFile, "machines-file", "", "extra machine profiles (TOML)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := readProgram(args[0])
	if err != nil {
		return err
	}
	ins, err := gcode.ParseAll(string(data))
	if err != nil {
		return err
	}

	ext := vm.ReplayAll(ins)
	span := ext.Span()
	fmt.Printf("commands: %d\n", len(ins))
	fmt.Printf("travel X: %g mm (%g to %g)\n", span.X, ext.Min.X, ext.Max.X)
	fmt.Printf("travel Y: %g mm (%g to %g)\n", span.Y, ext.Min.Y, ext.Max.Y)
	fmt.Printf("travel Z: %g mm (%g to %g)\n", span.Z, ext.Min.Z, ext.Max.Z)

	env, err := checkEnvelope()
	if err != nil {
		return err
	}
	if env == nil {
		return nil
	}

	violations := export.CheckEnvelope(ext, *env)
	if len(violations) == 0 {
		fmt.Printf("fits %g x %g x %g mm\n", env.X, env.Y, env.Z)
		return nil
	}
	for _, v := range violations {
		fmt.Printf("%s travel %g mm exceeds %g mm\n", v.Axis, v.Span, v.Limit)
	}
	return fmt.Errorf("travel exceeds machine limits on %d axis(es)", len(violations))
}

func readProgram(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// checkEnvelope resolves the envelope to check against, or nil when
// no machine or boundaries were given.
func checkEnvelope() (*machine.Envelope, error) {
	if checkFlags.boundaries != "" {
		return parseEnvelope(checkFlags.boundaries)
	}
	if checkFlags.machine == "" {
		return nil, nil
	}
	reg := machine.NewRegistry()
	if checkFlags.machinesFile != "" {
		if err := reg.MergeFile(checkFlags.machinesFile); err != nil {
			return nil, err
		}
	}
	p, ok := reg.Machine(checkFlags.machine)
	if !ok {
		return nil, fmt.Errorf("unknown machine %q", checkFlags.machine)
	}
	return &p.Envelope, nil
}
