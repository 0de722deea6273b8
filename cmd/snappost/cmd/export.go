package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/snapcnc/snappost/coord"
	"github.com/snapcnc/snappost/export"
	"github.com/snapcnc/snappost/machine"
	"github.com/snapcnc/snappost/review"
	"github.com/snapcnc/snappost/toolpath"
)

var exportFlags struct {
	output        string
	machinesFile  string
	thumbnailFile string

	commentSymbols []string
	lineStart      int
	lineIncrement  int
	precision      int
	units          string
	spacer         string
	separator      string

	preamble      string
	postamble     string
	preOperation  string
	postOperation string

	drillRetract    string
	toolChangeGcode string
	pause           string

	spindleWait   float64
	spindleSpeeds string

	commands      []string
	finalPosition string
	machine       string
	toolhead      string
	boundaries    string
}

var exportCmd = &cobra.Command{
	Use:   "export <job.json>",
	Short: "Emit a G-code program from a toolpath job",
	Long: `Reads a toolpath job document and emits a Snapmaker G-code program.

Pass - to read the job from stdin. Without --output the program goes
to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	f := exportCmd.Flags()

	f.StringVarP(&exportFlags.output, "output", "o", "", "output file (default stdout)")
	f.StringVar(&exportFlags.machinesFile, "machines-file", "", "extra machine profiles (TOML)")
	f.StringVar(&exportFlags.thumbnailFile, "thumbnail-file", "", "preview image (PNG) to embed in the header")

	addPair(f, "header", true, "emit the header block")
	addPair(f, "comments", true, "emit comment lines")
	addPair(f, "thumbnail", true, "embed the preview image (needs --thumbnail-file)")
	addPair(f, "line-numbers", false, "number lines with N words")
	addPair(f, "show-editor", false, "review the program before writing")
	addPair(f, "translate-drill-cycles", true, "expand G81/G82/G83 drill cycles")
	addPair(f, "tool-change", true, "emit tool change blocks")
	addPair(f, "tool-number", false, "emit T words on tool changes")
	addPair(f, "boundaries-check", false, "check travel against the machine envelope")
	f.Bool("remove-duplicates", true, "drop consecutive duplicate commands")
	f.Bool("keep-duplicates", false, "keep consecutive duplicate commands")
	f.Bool("spindle-rpm", false, "emit spindle speeds as rpm instead of percent")

	f.StringSliceVar(&exportFlags.commentSymbols, "comment-symbols", nil, `comment delimiters, one or two values (default ";")`)
	f.IntVar(&exportFlags.lineStart, "line-start", 1, "first line number")
	f.IntVar(&exportFlags.lineIncrement, "line-increment", 1, "line number increment")
	f.IntVar(&exportFlags.precision, "precision", 3, "decimal places for positions and feeds")
	f.StringVar(&exportFlags.units, "units", "mm", "output units (mm or in)")
	f.StringVar(&exportFlags.spacer, "spacer", " ", "separator between words")
	f.StringVar(&exportFlags.separator, "separator", "lf", "line ending (lf or crlf)")

	f.StringVar(&exportFlags.preamble, "preamble", "", "custom gcode before the program")
	f.StringVar(&exportFlags.postamble, "postamble", "M400\nM5", "custom gcode after the program")
	f.StringVar(&exportFlags.preOperation, "pre-operation", "", "custom gcode before each operation")
	f.StringVar(&exportFlags.postOperation, "post-operation", "", "custom gcode after each operation")

	f.StringVar(&exportFlags.drillRetract, "drill-retract-mode", "G98", "drill retract plane (G98 or G99)")
	f.StringVar(&exportFlags.toolChangeGcode, "tool-change-gcode", "", "custom gcode for tool changes (replaces the pause)")
	f.StringVar(&exportFlags.pause, "pause", "M76", "pause command for tool changes")

	f.Float64Var(&exportFlags.spindleWait, "spindle-wait", 4, "seconds to dwell after spindle start (0 waits for moves instead)")
	f.StringVar(&exportFlags.spindleSpeeds, "spindle-speeds", "", `spindle rpm range override as "min,max"`)

	f.StringSliceVar(&exportFlags.commands, "commands", nil, "extra commands to pass through")
	f.StringVar(&exportFlags.finalPosition, "final-position", "", `park position "x,y,z" after the last operation`)
	f.StringVar(&exportFlags.machine, "machine", "", "machine profile name")
	f.StringVar(&exportFlags.toolhead, "toolhead", machine.DefaultToolhead, "toolhead profile name")
	f.StringVar(&exportFlags.boundaries, "boundaries", "", `envelope override as "x,y,z"`)
}

// addPair registers an --x/--no-x toggle pair.
func addPair(f *pflag.FlagSet, name string, def bool, usage string) {
	f.Bool(name, def, usage)
	f.Bool("no-"+name, !def, "disable --"+name)
}

// pairValue resolves an --x/--no-x pair, the negative form winning
// when both are given.
func pairValue(f *pflag.FlagSet, name string, def bool) bool {
	if f.Changed("no-" + name) {
		v, _ := f.GetBool("no-" + name)
		return !v
	}
	if f.Changed(name) {
		v, _ := f.GetBool(name)
		return v
	}
	return def
}

func runExport(cmd *cobra.Command, args []string) error {
	job, err := loadJob(args[0])
	if err != nil {
		return err
	}

	reg := machine.NewRegistry()
	if exportFlags.machinesFile != "" {
		if err := reg.MergeFile(exportFlags.machinesFile); err != nil {
			return err
		}
	}

	cfg, err := buildConfig(cmd.Flags())
	if err != nil {
		return err
	}

	opts := export.Options{Registry: reg, Logger: slog.Default()}
	if exportFlags.thumbnailFile != "" {
		opts.Thumbnailer = pngFile(exportFlags.thumbnailFile)
	}

	res := export.New(&cfg, opts).Export(job)

	text := res.Gcode
	if cfg.ShowEditor {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			slog.Warn("no terminal attached, skipping editor")
		} else {
			edited, ok, err := review.Edit(outputName(exportFlags.output), text)
			if err != nil {
				return err
			}
			if !ok {
				slog.Info("export discarded")
				return nil
			}
			text = edited
		}
	}

	return writeOutput(exportFlags.output, text)
}

func buildConfig(f *pflag.FlagSet) (export.Config, error) {
	cfg := export.DefaultConfig()

	cfg.Header = pairValue(f, "header", cfg.Header)
	cfg.Comments = pairValue(f, "comments", cfg.Comments)
	cfg.LineNumbers = pairValue(f, "line-numbers", cfg.LineNumbers)
	cfg.ShowEditor = pairValue(f, "show-editor", cfg.ShowEditor)
	cfg.TranslateDrill = pairValue(f, "translate-drill-cycles", cfg.TranslateDrill)
	cfg.ToolChange = pairValue(f, "tool-change", cfg.ToolChange)
	cfg.ToolNumber = pairValue(f, "tool-number", cfg.ToolNumber)
	cfg.Thumbnail = pairValue(f, "thumbnail", cfg.Thumbnail) && exportFlags.thumbnailFile != ""

	if keep, _ := f.GetBool("keep-duplicates"); keep {
		cfg.RemoveDuplicates = false
	} else {
		cfg.RemoveDuplicates, _ = f.GetBool("remove-duplicates")
	}

	switch len(exportFlags.commentSymbols) {
	case 0:
	case 1:
		cfg.CommentSymbols = [2]string{exportFlags.commentSymbols[0], ""}
	case 2:
		cfg.CommentSymbols = [2]string{exportFlags.commentSymbols[0], exportFlags.commentSymbols[1]}
	default:
		return cfg, errors.New("comment-symbols takes at most two values")
	}

	cfg.LineStart = exportFlags.lineStart
	cfg.LineIncrement = exportFlags.lineIncrement
	cfg.Precision = exportFlags.precision
	cfg.Spacer = exportFlags.spacer

	var err error
	if cfg.Units, err = parseUnits(exportFlags.units); err != nil {
		return cfg, err
	}
	if cfg.Separator, err = parseSeparator(exportFlags.separator); err != nil {
		return cfg, err
	}
	if cfg.DrillRetract, err = parseRetract(exportFlags.drillRetract); err != nil {
		return cfg, err
	}

	cfg.Preamble = exportFlags.preamble
	cfg.Postamble = exportFlags.postamble
	cfg.PreOperation = exportFlags.preOperation
	cfg.PostOperation = exportFlags.postOperation

	cfg.ToolChangeGcode = exportFlags.toolChangeGcode
	cfg.Pause = exportFlags.pause
	cfg.SpindleWait = exportFlags.spindleWait
	if rpm, _ := f.GetBool("spindle-rpm"); rpm {
		cfg.SpindlePercent = false
	}
	if exportFlags.spindleSpeeds != "" {
		th, err := parseSpindleRange(exportFlags.spindleSpeeds)
		if err != nil {
			return cfg, err
		}
		cfg.SpindleSpeeds = th
	}

	cfg.ExtraCommands = exportFlags.commands
	if exportFlags.finalPosition != "" {
		p, err := coord.Parse(exportFlags.finalPosition)
		if err != nil {
			return cfg, fmt.Errorf("final-position: %w", err)
		}
		cfg.FinalPosition = &p
	}

	cfg.Machine = exportFlags.machine
	cfg.Toolhead = exportFlags.toolhead
	if exportFlags.boundaries != "" {
		env, err := parseEnvelope(exportFlags.boundaries)
		if err != nil {
			return cfg, fmt.Errorf("boundaries: %w", err)
		}
		cfg.Boundaries = env
	}
	cfg.BoundsCheck = pairValue(f, "boundaries-check", cfg.BoundsCheck)

	return cfg, nil
}

func loadJob(path string) (*toolpath.Job, error) {
	if path == "-" {
		return toolpath.Load(os.Stdin)
	}
	return toolpath.LoadFile(path)
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// pngFile serves a pre-rendered preview image as the job thumbnail.
type pngFile string

func (p pngFile) Thumbnail(*toolpath.Job) ([]byte, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return nil, fmt.Errorf("%s is not a png file", p)
	}
	return data, nil
}

func outputName(path string) string {
	if path == "" || path == "-" {
		return "stdout"
	}
	return filepath.Base(path)
}

func writeOutput(path, text string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(os.Stdout, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return err
	}
	slog.Info("wrote program", "file", path, "bytes", len(text))
	return nil
}
