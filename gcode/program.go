package gcode

import (
	"strconv"
	"strings"
)

// RetractMode is the canned-cycle retract policy.
type RetractMode int

const (
	// RetractInitial retracts to the height in effect before the
	// cycle started (G98).
	RetractInitial RetractMode = iota
	// RetractRPlane retracts to the cycle's own R height (G99).
	RetractRPlane
)

func (m RetractMode) String() string {
	if m == RetractRPlane {
		return "G99"
	}
	return "G98"
}

// Program is the ordered output stream of one export: instructions
// and text lines in emission order, plus the modal context the
// assembler and drill translator consult while appending.
type Program struct {
	lines   []Line
	dedup   bool
	retract RetractMode
}

func NewProgram(removeDuplicates bool) *Program {
	return &Program{dedup: removeDuplicates}
}

func (p *Program) Len() int                     { return len(p.lines) }
func (p *Program) Lines() []Line                { return p.lines }
func (p *Program) RetractMode() RetractMode     { return p.retract }
func (p *Program) SetRetractMode(m RetractMode) { p.retract = m }

// Append adds ln to the program. With duplicate removal on, a line
// structurally equal to the immediately preceding one is dropped and
// Append reports false. Equality never looks further back, so the
// check stays O(1) per append.
func (p *Program) Append(ln Line) bool {
	if p.dedup && len(p.lines) > 0 && p.lines[len(p.lines)-1].Equal(ln) {
		return false
	}
	p.lines = append(p.lines, ln)
	return true
}

func (p *Program) AppendInstruction(in *Instruction) bool {
	return p.Append(InstructionLine(in))
}

// LastInstruction scans backward over the whole program and returns
// the most recent instruction whose name is in names, or the most
// recent instruction of any name when names is empty. Nil when none
// is found.
func (p *Program) LastInstruction(names ...string) *Instruction {
	for i := len(p.lines) - 1; i >= 0; i-- {
		if p.lines[i].Kind != KindInstruction {
			continue
		}
		in := p.lines[i].Inst
		if len(names) == 0 || nameIn(in.Name, names) {
			return in
		}
	}
	return nil
}

// LastParam scans backward over the whole program and returns the
// most recent value emitted for letter, optionally restricted to
// instructions named in names.
func (p *Program) LastParam(letter byte, names ...string) (float64, bool) {
	for i := len(p.lines) - 1; i >= 0; i-- {
		if p.lines[i].Kind != KindInstruction {
			continue
		}
		in := p.lines[i].Inst
		if len(names) > 0 && !nameIn(in.Name, names) {
			continue
		}
		if v, ok := in.Param(letter); ok {
			return v, true
		}
	}
	return 0, false
}

func nameIn(name string, names []string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// RenderOptions controls text materialization. Comments and headers
// are filtered (not renumbered around); line numbers go on
// instruction and raw lines only.
type RenderOptions struct {
	Comments      bool
	Headers       bool
	LineNumbers   bool
	LineStart     int
	LineIncrement int
	Separator     string
}

// Render materializes the program. Every rendered line is followed by
// the separator, so a non-empty program ends with one.
func (p *Program) Render(f *Formatter, o RenderOptions) string {
	sep := o.Separator
	if sep == "" {
		sep = "\n"
	}
	n := o.LineStart

	var b strings.Builder
	for _, ln := range p.lines {
		var s string
		switch ln.Kind {
		case KindInstruction:
			s = f.Instruction(ln.Inst)
		case KindRaw:
			s = ln.Text
		case KindHeader:
			if !o.Headers {
				continue
			}
			s = f.Comment(ln.Text)
		case KindComment:
			if !o.Comments {
				continue
			}
			s = f.Comment(ln.Text)
		}
		if o.LineNumbers && (ln.Kind == KindInstruction || ln.Kind == KindRaw) {
			b.WriteString("N")
			b.WriteString(strconv.Itoa(n))
			b.WriteString(f.Spacer)
			n += o.LineIncrement
		}
		b.WriteString(s)
		b.WriteString(sep)
	}
	return b.String()
}
