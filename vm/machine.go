package vm

import (
	"github.com/snapcnc/snappost/coord"
	"github.com/snapcnc/snappost/gcode"
)

// Machine replays an instruction stream and records the coordinate
// extents it reaches. Axis values are taken as absolute machine
// positions; distance-mode instructions (G90/G91) do not change the
// accumulation. The replay is advisory and absorbs anything it does
// not understand.
type Machine struct {
	pos coord.Point
	ext Extents
}

// Extents is the axis-aligned bounding box of all visited positions.
// A fresh machine sits at the origin, so the origin is always
// included.
type Extents struct {
	Min, Max coord.Point
}

// Span returns the per-axis travel distance.
func (e Extents) Span() coord.Point {
	return e.Max.Sub(e.Min)
}

func New() *Machine {
	return &Machine{}
}

func (m *Machine) Position() coord.Point { return m.pos }
func (m *Machine) Extents() Extents      { return m.ext }

// Run applies one instruction. Only motion instructions move the
// position; all others are ignored.
func (m *Machine) Run(in *gcode.Instruction) {
	if !gcode.IsMotion(in.Name) {
		return
	}
	if v, ok := in.Param('X'); ok {
		m.pos.X = v
	}
	if v, ok := in.Param('Y'); ok {
		m.pos.Y = v
	}
	if v, ok := in.Param('Z'); ok {
		m.pos.Z = v
	}
	m.track()
}

func (m *Machine) track() {
	if m.pos.X < m.ext.Min.X {
		m.ext.Min.X = m.pos.X
	}
	if m.pos.X > m.ext.Max.X {
		m.ext.Max.X = m.pos.X
	}
	if m.pos.Y < m.ext.Min.Y {
		m.ext.Min.Y = m.pos.Y
	}
	if m.pos.Y > m.ext.Max.Y {
		m.ext.Max.Y = m.pos.Y
	}
	if m.pos.Z < m.ext.Min.Z {
		m.ext.Min.Z = m.pos.Z
	}
	if m.pos.Z > m.ext.Max.Z {
		m.ext.Max.Z = m.pos.Z
	}
}

// Replay runs every instruction line of p on a fresh machine.
func Replay(p *gcode.Program) Extents {
	m := New()
	for _, ln := range p.Lines() {
		if ln.Kind != gcode.KindInstruction {
			continue
		}
		m.Run(ln.Inst)
	}
	return m.Extents()
}

// ReplayAll runs a bare instruction list on a fresh machine.
func ReplayAll(ins []*gcode.Instruction) Extents {
	m := New()
	for _, in := range ins {
		m.Run(in)
	}
	return m.Extents()
}
