package export

import (
	"github.com/snapcnc/snappost/coord"
	"github.com/snapcnc/snappost/gcode"
	"github.com/snapcnc/snappost/machine"
)

// DefaultCommands is the instruction vocabulary passed straight
// through to the output.
var DefaultCommands = []string{
	"G0", "G00", "G1", "G01", "G2", "G02", "G3", "G03",
	"G4", "G04", "G17", "G21", "G28", "G54", "G80", "G90",
	"M3", "M03", "M4", "M04", "M5", "M05",
	"M17", "M18", "M25", "M76", "M81",
}

// Config holds every knob of one export, resolved before the run.
// The exporter never modifies it; build one from DefaultConfig and
// adjust fields.
type Config struct {
	Header   bool
	Comments bool
	// CommentSymbols is the open/close delimiter pair.
	CommentSymbols [2]string
	Thumbnail      bool

	LineNumbers   bool
	LineStart     int
	LineIncrement int

	RemoveDuplicates bool
	ShowEditor       bool

	Precision int
	Units     gcode.Units
	Spacer    string
	Separator string

	// Raw passthrough text, one command per line.
	Preamble      string
	Postamble     string
	PreOperation  string
	PostOperation string

	TranslateDrill bool
	DrillRetract   gcode.RetractMode

	ToolChange bool
	// ToolChangeGcode replaces the pause on tool changes when set.
	ToolChangeGcode string
	ToolNumber      bool
	Pause           string

	// SpindleWait is seconds to dwell after spindle-on; zero emits a
	// wait-for-completion instead.
	SpindleWait    float64
	SpindlePercent bool
	// SpindleSpeeds overrides the toolhead rpm range when set.
	SpindleSpeeds *machine.Toolhead

	// ExtraCommands extends DefaultCommands for this export.
	ExtraCommands []string

	FinalPosition *coord.Point

	Machine     string
	Toolhead    string
	Boundaries  *machine.Envelope
	BoundsCheck bool
}

func DefaultConfig() Config {
	return Config{
		Header:           true,
		Comments:         true,
		CommentSymbols:   [2]string{";", ""},
		Thumbnail:        true,
		LineStart:        1,
		LineIncrement:    1,
		RemoveDuplicates: true,
		Precision:        3,
		Units:            gcode.Millimeters,
		Spacer:           " ",
		Separator:        "\n",
		Postamble:        "M400\nM5",
		TranslateDrill:   true,
		DrillRetract:     gcode.RetractInitial,
		ToolChange:       true,
		Pause:            "M76",
		SpindleWait:      4,
		SpindlePercent:   true,
		Toolhead:         machine.DefaultToolhead,
	}
}
