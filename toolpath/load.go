package toolpath

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/snapcnc/snappost/gcode"
)

type jobFile struct {
	Name       string     `json:"name"`
	Source     string     `json:"source"`
	Setup      SetupSheet `json:"setup"`
	Operations []opFile   `json:"operations"`
}

type opFile struct {
	Label    string   `json:"label"`
	Active   *bool    `json:"active"`
	Tool     *Tool    `json:"tool"`
	Coolant  string   `json:"coolant"`
	Gcode    string   `json:"gcode"`
	Children []opFile `json:"children"`
}

// Load reads a job document from r.
func Load(r io.Reader) (*Job, error) {
	var jf jobFile
	if err := json.NewDecoder(r).Decode(&jf); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}

	job := &Job{Name: jf.Name, Source: jf.Source, Setup: jf.Setup}
	for i := range jf.Operations {
		op, err := convertOp(&jf.Operations[i])
		if err != nil {
			return nil, err
		}
		job.Operations = append(job.Operations, op)
	}
	return job, nil
}

// LoadFile reads a job document from path.
func LoadFile(path string) (*Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	job, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return job, nil
}

func convertOp(of *opFile) (*Operation, error) {
	if of.Gcode != "" && len(of.Children) > 0 {
		return nil, fmt.Errorf("operation %q: both gcode and children set", of.Label)
	}

	op := &Operation{Label: of.Label, Active: true, Tool: of.Tool}
	if of.Active != nil {
		op.Active = *of.Active
	}

	switch mode := CoolantMode(strings.ToLower(of.Coolant)); mode {
	case "", CoolantNone:
		op.Coolant = CoolantNone
	case CoolantMist, CoolantFlood:
		op.Coolant = mode
	default:
		return nil, fmt.Errorf("operation %q: unknown coolant mode %q", of.Label, of.Coolant)
	}

	if len(of.Children) > 0 {
		for i := range of.Children {
			child, err := convertOp(&of.Children[i])
			if err != nil {
				return nil, err
			}
			op.Children = append(op.Children, child)
		}
		return op, nil
	}

	ins, err := gcode.ParseAll(of.Gcode)
	if err != nil {
		return nil, fmt.Errorf("operation %q: %w", of.Label, err)
	}
	op.Instructions = ins
	return op, nil
}
