package export

import (
	"github.com/snapcnc/snappost/machine"
	"github.com/snapcnc/snappost/vm"
)

// CheckEnvelope reports the axes of ext whose travel exceeds env.
func CheckEnvelope(ext vm.Extents, env machine.Envelope) []Violation {
	span := ext.Span()
	var out []Violation
	if span.X > env.X {
		out = append(out, Violation{Axis: "X", Span: span.X, Limit: env.X})
	}
	if span.Y > env.Y {
		out = append(out, Violation{Axis: "Y", Span: span.Y, Limit: env.Y})
	}
	if span.Z > env.Z {
		out = append(out, Violation{Axis: "Z", Span: span.Z, Limit: env.Z})
	}
	return out
}

// checkBounds resolves the envelope from the override or machine
// profile and warns per violated axis. Advisory only: violations
// never fail the export.
func (e *Exporter) checkBounds(ext vm.Extents) []Violation {
	env := e.cfg.Boundaries
	if env == nil {
		p, ok := e.opts.Registry.Machine(e.cfg.Machine)
		if !ok {
			e.log.Error("no machine envelope to check against", "machine", e.cfg.Machine)
			return nil
		}
		env = &p.Envelope
	}

	out := CheckEnvelope(ext, *env)
	for _, v := range out {
		e.log.Warn("travel exceeds machine limits",
			"axis", v.Axis, "travel", v.Span, "limit", v.Limit)
	}
	return out
}
