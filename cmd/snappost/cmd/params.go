package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/snapcnc/snappost/coord"
	"github.com/snapcnc/snappost/gcode"
	"github.com/snapcnc/snappost/machine"
)

func parseUnits(s string) (gcode.Units, error) {
	switch strings.ToLower(s) {
	case "mm", "metric":
		return gcode.Millimeters, nil
	case "in", "inch", "imperial":
		return gcode.Inches, nil
	}
	return 0, fmt.Errorf("unknown units %q (want mm or in)", s)
}

func parseSeparator(s string) (string, error) {
	switch strings.ToLower(s) {
	case "lf":
		return "\n", nil
	case "crlf":
		return "\r\n", nil
	}
	return "", fmt.Errorf("unknown separator %q (want lf or crlf)", s)
}

func parseRetract(s string) (gcode.RetractMode, error) {
	switch strings.ToUpper(s) {
	case "G98":
		return gcode.RetractInitial, nil
	case "G99":
		return gcode.RetractRPlane, nil
	}
	return 0, fmt.Errorf("unknown drill retract mode %q (want G98 or G99)", s)
}

func parseEnvelope(s string) (*machine.Envelope, error) {
	p, err := coord.Parse(s)
	if err != nil {
		return nil, err
	}
	return &machine.Envelope{X: p.X, Y: p.Y, Z: p.Z}, nil
}

func parseSpindleRange(s string) (*machine.Toolhead, error) {
	lo, hi, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf(`spindle-speeds %q: want "min,max"`, s)
	}
	min, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return nil, fmt.Errorf("spindle-speeds: %w", err)
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return nil, fmt.Errorf("spindle-speeds: %w", err)
	}
	if min < 0 || max <= 0 || min > max {
		return nil, fmt.Errorf("spindle-speeds %q: want 0 <= min <= max", s)
	}
	return &machine.Toolhead{MinRPM: min, MaxRPM: max}, nil
}
