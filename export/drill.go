package export

import (
	"github.com/snapcnc/snappost/gcode"
	"github.com/snapcnc/snappost/toolpath"
)

// drill expands a canned drilling cycle (G81 plain, G82 dwell, G83
// peck) into primitive moves. The synthesized moves run through the
// normal emit path, so rapid feed backfill and duplicate removal
// apply to them like any planner move.
func (e *Exporter) drill(in *gcode.Instruction, op *toolpath.Operation) {
	z, okZ := in.Param('Z')
	r, okR := in.Param('R')
	if !okZ || !okR {
		e.log.Error("drill cycle missing Z or R, skipped", "instruction", in.Name)
		return
	}
	if r < z {
		e.log.Error("drill retract height below target depth, skipped", "r", r, "z", z)
		return
	}

	var q float64
	if in.Name == "G83" {
		var okQ bool
		q, okQ = in.Param('Q')
		if !okQ || q <= 0 {
			e.log.Error("peck cycle needs a positive Q, skipped", "q", q)
			return
		}
	}

	curX, _ := e.prog.LastParam('X')
	curY, _ := e.prog.LastParam('Y')
	curZ, _ := e.prog.LastParam('Z')

	retractZ := r
	if e.prog.RetractMode() == gcode.RetractInitial && curZ > r {
		retractZ = curZ
	}

	feed, _ := in.Param('F')
	rapid := func(params map[byte]float64) {
		e.emit(gcode.MustInstruction("G0", params), op)
	}
	feedTo := func(depth float64) {
		e.emit(gcode.MustInstruction("G1", map[byte]float64{'Z': depth, 'F': feed}), op)
	}

	// clear to the retract plane before any repositioning
	if curZ < retractZ {
		rapid(map[byte]float64{'Z': retractZ})
	}
	// reposition only when both axes moved (see DESIGN.md on the
	// AND policy)
	x, okX := in.Param('X')
	y, okY := in.Param('Y')
	if okX && okY && x != curX && y != curY {
		rapid(map[byte]float64{'X': x, 'Y': y})
	}
	rapid(map[byte]float64{'Z': r})

	switch in.Name {
	case "G83":
		e.peck(r, z, q, feedTo, rapid)
	case "G82":
		feedTo(z)
		if p, okP := in.Param('P'); okP {
			e.emit(gcode.MustInstruction("G4", map[byte]float64{'S': p}), op)
		} else {
			e.log.Warn("dwell cycle without P, plain drill emitted")
		}
	default:
		feedTo(z)
	}

	rapid(map[byte]float64{'Z': retractZ})
}

// peck feeds down in Q-sized steps. Between pecks it retracts fully
// to R and rapids back to half a step above the cut to clear chips.
// The last feed lands exactly on z.
func (e *Exporter) peck(r, z, q float64, feedTo func(float64), rapid func(map[byte]float64)) {
	chip := q / 2
	next := r - q
	for next >= z {
		feedTo(next)
		switch {
		case next-q >= z:
			rapid(map[byte]float64{'Z': r})
			rapid(map[byte]float64{'Z': next + chip})
			next -= q
		case next == z:
			return
		default:
			rapid(map[byte]float64{'Z': r})
			rapid(map[byte]float64{'Z': next + chip})
			feedTo(z)
			return
		}
	}
}
