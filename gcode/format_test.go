package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func metricFormatter() *Formatter {
	return &Formatter{
		Units:          Millimeters,
		Precision:      3,
		Spacer:         " ",
		CommentSymbols: [2]string{";", ""},
		SpindlePercent: true,
		SpindleMin:     6000,
		SpindleMax:     12000,
	}
}

func TestFormatter_Positions(t *testing.T) {
	f := metricFormatter()

	in := MustInstruction("G0", map[byte]float64{'X': 10, 'Y': 20, 'Z': 30})
	assert.Equal(t, "G0 X10.000 Y20.000 Z30.000", f.Instruction(in))

	f.Precision = 1
	assert.Equal(t, "G0 X10.0 Y20.0 Z30.0", f.Instruction(in))
}

func TestFormatter_Inches(t *testing.T) {
	f := metricFormatter()
	f.Units = Inches

	in := MustInstruction("G0", map[byte]float64{'X': 10, 'Y': 20, 'Z': 30})
	assert.Equal(t, "G0 X0.394 Y0.787 Z1.181", f.Instruction(in))

	f.Precision = 4
	assert.Equal(t, "G0 X0.3937 Y0.7874 Z1.1811", f.Instruction(in))
}

func TestFormatter_Feed(t *testing.T) {
	f := metricFormatter()

	// 20 mm/s -> 1200 mm/min
	in := MustInstruction("G1", map[byte]float64{'X': 10, 'F': 20})
	assert.Equal(t, "G1 X10.000 F1200.000", f.Instruction(in))

	f.Units = Inches
	// 25.4 mm/s -> 60 in/min
	in = MustInstruction("G1", map[byte]float64{'F': 25.4})
	assert.Equal(t, "G1 F60.000", f.Instruction(in))
}

func TestFormatter_FeedNonPositive(t *testing.T) {
	f := metricFormatter()

	// still emitted, only logged
	in := MustInstruction("G1", map[byte]float64{'X': 5, 'F': 0})
	assert.Equal(t, "G1 X5.000 F0.000", f.Instruction(in))
}

func TestFormatter_SpindlePercent(t *testing.T) {
	f := metricFormatter()

	in := MustInstruction("M3", map[byte]float64{'S': 9000})
	assert.Equal(t, "M3 P75", f.Instruction(in))

	// clamped to the toolhead range
	in = MustInstruction("M3", map[byte]float64{'S': 3000})
	assert.Equal(t, "M3 P50", f.Instruction(in))
	in = MustInstruction("M03", map[byte]float64{'S': 20000})
	assert.Equal(t, "M03 P100", f.Instruction(in))

	f.SpindleMin, f.SpindleMax = 8000, 18000
	in = MustInstruction("M3", map[byte]float64{'S': 3600})
	assert.Equal(t, "M3 P44", f.Instruction(in))
}

func TestFormatter_SpindleRaw(t *testing.T) {
	f := metricFormatter()
	f.SpindlePercent = false

	in := MustInstruction("M3", map[byte]float64{'S': 9000})
	assert.Equal(t, "M3 S9000", f.Instruction(in))
}

func TestFormatter_DwellSeconds(t *testing.T) {
	f := metricFormatter()

	// S on a dwell is seconds: no speed conversion
	in := MustInstruction("G4", map[byte]float64{'S': 4})
	assert.Equal(t, "G4 S4.000", f.Instruction(in))
}

func TestFormatter_OpaqueParams(t *testing.T) {
	f := metricFormatter()

	in := MustInstruction("M6", map[byte]float64{'T': 2})
	assert.Equal(t, "M6 T2", f.Instruction(in))

	// rotary axes pass through unconverted
	f.Units = Inches
	in = MustInstruction("G0", map[byte]float64{'A': 45.5, 'X': 25.4})
	assert.Equal(t, "G0 X1.000 A45.5", f.Instruction(in))
}

func TestFormatter_SkipsO(t *testing.T) {
	f := metricFormatter()

	in := MustInstruction("G0", map[byte]float64{'X': 1, 'O': 7})
	assert.Equal(t, "G0 X1.000", f.Instruction(in))
}

func TestFormatter_ParamOrder(t *testing.T) {
	f := metricFormatter()

	in := MustInstruction("G83", map[byte]float64{
		'F': 5, 'Q': 1.5, 'R': 2, 'Z': -5, 'X': 1, 'Y': 2,
	})
	assert.Equal(t, "G83 X1.000 Y2.000 Z-5.000 F300.000 Q1.500 R2.000", f.Instruction(in))
}

func TestFormatter_Comment(t *testing.T) {
	f := metricFormatter()
	assert.Equal(t, ";hello", f.Comment("hello"))

	f.CommentSymbols = [2]string{"(", ")"}
	assert.Equal(t, "(hello)", f.Comment("hello"))
}

func TestUnits(t *testing.T) {
	assert.Equal(t, "mm", Millimeters.String())
	assert.Equal(t, "in", Inches.String())
	assert.Equal(t, "G21", Millimeters.Selector())
	assert.Equal(t, "G20", Inches.Selector())
}
