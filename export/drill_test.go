package export

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapcnc/snappost/gcode"
	"github.com/snapcnc/snappost/toolpath"
)

func testExporter(mutate func(*Config)) *Exporter {
	cfg := DefaultConfig()
	cfg.Header = false
	cfg.Comments = false
	cfg.Thumbnail = false
	if mutate != nil {
		mutate(&cfg)
	}
	return New(&cfg, Options{})
}

// instructions renders the program's instruction lines in internal
// units, ignoring text lines.
func instructions(p *gcode.Program) []string {
	var out []string
	for _, ln := range p.Lines() {
		if ln.Kind != gcode.KindInstruction {
			continue
		}
		out = append(out, ln.Inst.String())
	}
	return out
}

func ratedTool() *toolpath.Tool {
	return &toolpath.Tool{Name: "3mm drill", Number: 1, VertRapid: 30, HorizRapid: 60}
}

func TestDrill_Simple(t *testing.T) {
	e := testExporter(nil)
	e.prog.SetRetractMode(gcode.RetractRPlane)
	op := &toolpath.Operation{Label: "Drill01", Active: true, Tool: ratedTool()}

	e.drill(gcode.MustInstruction("G81", map[byte]float64{
		'X': 10, 'Y': 10, 'Z': -5, 'R': 2, 'F': 100,
	}), op)

	assert.Equal(t, []string{
		"G0 Z2 F30",
		"G0 X10 Y10 F60",
		"G0 Z2 F30",
		"G1 Z-5 F100",
		"G0 Z2 F30",
	}, instructions(e.prog))
	assert.Empty(t, e.rec.Entries())
}

func TestDrill_NoRapidRates(t *testing.T) {
	e := testExporter(nil)
	e.prog.SetRetractMode(gcode.RetractRPlane)

	e.drill(gcode.MustInstruction("G81", map[byte]float64{
		'X': 10, 'Y': 10, 'Z': -5, 'R': 2, 'F': 100,
	}), nil)

	// the final retract inherits the cut feed; earlier rapids have
	// nothing to inherit and only warn
	assert.Equal(t, []string{
		"G0 Z2",
		"G0 X10 Y10",
		"G0 Z2",
		"G1 Z-5 F100",
		"G0 Z2 F100",
	}, instructions(e.prog))
	assert.Len(t, e.rec.Entries(), 3)
}

func TestDrill_RetractToInitial(t *testing.T) {
	e := testExporter(nil)
	e.prog.AppendInstruction(gcode.MustInstruction("G0", map[byte]float64{'Z': 5}))

	e.drill(gcode.MustInstruction("G81", map[byte]float64{
		'Z': -5, 'R': 2, 'F': 100,
	}), &toolpath.Operation{Active: true, Tool: ratedTool()})

	// mode G98 with the spindle above R: retract ends at Z=5
	assert.Equal(t, []string{
		"G0 Z5",
		"G0 Z2 F30",
		"G1 Z-5 F100",
		"G0 Z5 F30",
	}, instructions(e.prog))
}

func TestDrill_RetractToRPlane(t *testing.T) {
	e := testExporter(func(c *Config) {
		c.DrillRetract = gcode.RetractRPlane
	})
	e.prog.AppendInstruction(gcode.MustInstruction("G0", map[byte]float64{'Z': 5}))

	e.drill(gcode.MustInstruction("G81", map[byte]float64{
		'Z': -5, 'R': 2, 'F': 100,
	}), &toolpath.Operation{Active: true, Tool: ratedTool()})

	assert.Equal(t, []string{
		"G0 Z5",
		"G0 Z2 F30",
		"G1 Z-5 F100",
		"G0 Z2 F30",
	}, instructions(e.prog))
}

func TestDrill_SingleAxisRepositionSkipped(t *testing.T) {
	e := testExporter(nil)
	e.prog.SetRetractMode(gcode.RetractRPlane)
	e.prog.AppendInstruction(gcode.MustInstruction("G0", map[byte]float64{'X': 5, 'Y': 7}))

	// Y matches the current position, so no XY rapid is emitted
	e.drill(gcode.MustInstruction("G81", map[byte]float64{
		'X': 10, 'Y': 7, 'Z': -5, 'R': 2, 'F': 100,
	}), &toolpath.Operation{Active: true, Tool: ratedTool()})

	got := instructions(e.prog)
	assert.Equal(t, []string{
		"G0 X5 Y7",
		"G0 Z2 F30",
		"G1 Z-5 F100",
		"G0 Z2 F30",
	}, got)
	for _, s := range got {
		assert.NotContains(t, s, "X10")
	}
}

func TestDrill_RetractBelowTarget(t *testing.T) {
	e := testExporter(nil)

	e.drill(gcode.MustInstruction("G81", map[byte]float64{
		'Z': 5, 'R': 2, 'F': 100,
	}), nil)

	assert.Empty(t, instructions(e.prog))
	entries := e.rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, slog.LevelError, entries[0].Level)
}

func TestDrill_MissingDepth(t *testing.T) {
	e := testExporter(nil)

	e.drill(gcode.MustInstruction("G81", map[byte]float64{'X': 1, 'R': 2}), nil)
	e.drill(gcode.MustInstruction("G81", map[byte]float64{'Z': -5}), nil)

	assert.Empty(t, instructions(e.prog))
	assert.Len(t, e.rec.Entries(), 2)
}

func TestDrill_Dwell(t *testing.T) {
	e := testExporter(nil)
	e.prog.SetRetractMode(gcode.RetractRPlane)

	e.drill(gcode.MustInstruction("G82", map[byte]float64{
		'Z': -5, 'R': 2, 'F': 100, 'P': 1.5,
	}), &toolpath.Operation{Active: true, Tool: ratedTool()})

	assert.Equal(t, []string{
		"G0 Z2 F30",
		"G1 Z-5 F100",
		"G4 S1.5",
		"G0 Z2 F30",
	}, instructions(e.prog))
}

func TestDrill_DwellWithoutP(t *testing.T) {
	e := testExporter(nil)
	e.prog.SetRetractMode(gcode.RetractRPlane)

	e.drill(gcode.MustInstruction("G82", map[byte]float64{
		'Z': -5, 'R': 2, 'F': 100,
	}), &toolpath.Operation{Active: true, Tool: ratedTool()})

	assert.Equal(t, []string{
		"G0 Z2 F30",
		"G1 Z-5 F100",
		"G0 Z2 F30",
	}, instructions(e.prog))
	require.Len(t, e.rec.Entries(), 1)
	assert.Equal(t, slog.LevelWarn, e.rec.Entries()[0].Level)
}

func TestDrill_Peck(t *testing.T) {
	e := testExporter(nil)

	e.drill(gcode.MustInstruction("G83", map[byte]float64{
		'Z': -5, 'R': 0, 'Q': 2, 'F': 50,
	}), &toolpath.Operation{Active: true, Tool: ratedTool()})

	// terminates and lands exactly on Z=-5
	assert.Equal(t, []string{
		"G0 Z0 F30",
		"G1 Z-2 F50",
		"G0 Z0 F30",
		"G0 Z-1 F30",
		"G1 Z-4 F50",
		"G0 Z0 F30",
		"G0 Z-3 F30",
		"G1 Z-5 F50",
		"G0 Z0 F30",
	}, instructions(e.prog))
}

func TestDrill_PeckExactMultiple(t *testing.T) {
	e := testExporter(nil)

	e.drill(gcode.MustInstruction("G83", map[byte]float64{
		'Z': -4, 'R': 0, 'Q': 2, 'F': 50,
	}), &toolpath.Operation{Active: true, Tool: ratedTool()})

	assert.Equal(t, []string{
		"G0 Z0 F30",
		"G1 Z-2 F50",
		"G0 Z0 F30",
		"G0 Z-1 F30",
		"G1 Z-4 F50",
		"G0 Z0 F30",
	}, instructions(e.prog))
}

func TestDrill_PeckInvalidQ(t *testing.T) {
	e := testExporter(nil)

	e.drill(gcode.MustInstruction("G83", map[byte]float64{
		'Z': -5, 'R': 0, 'F': 50,
	}), nil)
	e.drill(gcode.MustInstruction("G83", map[byte]float64{
		'Z': -5, 'R': 0, 'Q': -1, 'F': 50,
	}), nil)

	assert.Empty(t, instructions(e.prog))
	assert.Len(t, e.rec.Entries(), 2)
}

func TestDrill_PeckShallow(t *testing.T) {
	e := testExporter(nil)

	// first peck would already pass the target: no feed move at all
	e.drill(gcode.MustInstruction("G83", map[byte]float64{
		'Z': -3, 'R': 0, 'Q': 5, 'F': 50,
	}), &toolpath.Operation{Active: true, Tool: ratedTool()})

	for _, s := range instructions(e.prog) {
		assert.NotContains(t, s, "G1")
	}
}
