// Package toolpath models the planner output an export consumes: a
// job of ordered operations, each carrying instruction text plus
// tool and coolant metadata.
package toolpath

import (
	"github.com/snapcnc/snappost/gcode"
)

// CoolantMode selects the coolant commands framing an operation.
type CoolantMode string

const (
	CoolantNone  CoolantMode = "none"
	CoolantMist  CoolantMode = "mist"
	CoolantFlood CoolantMode = "flood"
)

// Tool is the cutter an operation runs with. Rapid rates are
// millimeters per second; zero means not set.
type Tool struct {
	Name       string  `json:"name"`
	Number     int     `json:"number"`
	VertRapid  float64 `json:"vert_rapid"`
	HorizRapid float64 `json:"horiz_rapid"`
}

// SetupSheet carries job-wide fallback rapid rates.
type SetupSheet struct {
	VertRapid  float64 `json:"vert_rapid"`
	HorizRapid float64 `json:"horiz_rapid"`
}

// Operation is one entry of a job: either a simple operation
// carrying instructions, or a compound one carrying children.
// Exactly one of Instructions or Children is populated.
type Operation struct {
	Label        string
	Active       bool
	Tool         *Tool
	Coolant      CoolantMode
	Instructions []*gcode.Instruction
	Children     []*Operation
}

// Compound reports whether the operation is a group of children.
func (op *Operation) Compound() bool { return op.Children != nil }

// Job is a loaded toolpath program.
type Job struct {
	Name       string
	Source     string
	Setup      SetupSheet
	Operations []*Operation
}
