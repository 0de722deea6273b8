package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "snappost",
	Short: "Snapmaker CNC post-processor",
	Long: `snappost turns CAM toolpath jobs into Snapmaker-dialect G-code.

Commands:
  export    - emit a G-code program from a toolpath job
  check     - replay a program and check machine boundaries
  machines  - list known machine and toolhead profiles
  send      - stream a program to a controller
  serve     - run the export HTTP service`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug output")
}
