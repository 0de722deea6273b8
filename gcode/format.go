package gcode

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
)

type Units int

const (
	Millimeters Units = iota
	Inches
)

func (u Units) String() string {
	if u == Inches {
		return "in"
	}
	return "mm"
}

// Selector returns the measurement-unit instruction name.
func (u Units) Selector() string {
	if u == Inches {
		return "G20"
	}
	return "G21"
}

const mmPerInch = 25.4

// Formatter renders instructions and comments to output text.
// Positions convert from internal millimeters to the configured
// units; feed rates convert from mm/s to units per minute; spindle
// rpm maps to an integer percentage of the toolhead maximum when
// SpindlePercent is set.
type Formatter struct {
	Units          Units
	Precision      int
	Spacer         string
	CommentSymbols [2]string

	SpindlePercent bool
	SpindleMin     float64
	SpindleMax     float64

	Log *slog.Logger
}

func (f *Formatter) logger() *slog.Logger {
	if f.Log != nil {
		return f.Log
	}
	return slog.Default()
}

func formatFloat(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
	}
	return strings.TrimRight(s, ".")
}

// fixed keeps the configured number of decimals, trailing zeros
// included. Controllers reject nothing here, but the output must be
// byte-stable for a given precision.
func (f *Formatter) fixed(v float64) string {
	return strconv.FormatFloat(v, 'f', f.Precision, 64)
}

// length converts internal millimeters to output units.
func (f *Formatter) length(v float64) float64 {
	if f.Units == Inches {
		return v / mmPerInch
	}
	return v
}

// speed converts internal mm/s to output units per minute.
func (f *Formatter) speed(v float64) float64 {
	v *= 60
	if f.Units == Inches {
		return v / mmPerInch
	}
	return v
}

// Percent maps rpm into the toolhead range and returns the percent
// of maximum, floored to an integer.
func (f *Formatter) Percent(rpm float64) int {
	if rpm < f.SpindleMin {
		rpm = f.SpindleMin
	}
	if rpm > f.SpindleMax {
		rpm = f.SpindleMax
	}
	return int(math.Floor(rpm * 100 / f.SpindleMax))
}

func isPositionParam(letter byte) bool {
	switch letter {
	case 'X', 'Y', 'Z', 'I', 'J', 'R', 'Q':
		return true
	}
	return false
}

// Instruction renders one instruction, parameters in canonical
// order.
func (f *Formatter) Instruction(in *Instruction) string {
	var b strings.Builder
	b.WriteString(in.Name)
	for _, letter := range ParamOrder {
		v, ok := in.Param(letter)
		if !ok {
			continue
		}
		switch {
		case isPositionParam(letter):
			b.WriteString(f.Spacer)
			b.WriteByte(letter)
			b.WriteString(f.fixed(f.length(v)))
		case letter == 'F':
			feed := f.speed(v)
			if feed <= 0 {
				f.logger().Error("feed rate must be positive", "instruction", in.Name, "feed", v)
			}
			b.WriteString(f.Spacer)
			b.WriteString("F")
			b.WriteString(f.fixed(feed))
		case letter == 'S':
			f.writeSpindle(&b, in.Name, v)
		case letter == 'O':
			// accepted but never rendered
		default: // A B C T L H D P
			b.WriteString(f.Spacer)
			b.WriteByte(letter)
			b.WriteString(formatFloat(v, f.Precision))
		}
	}
	return b.String()
}

func (f *Formatter) writeSpindle(b *strings.Builder, name string, v float64) {
	b.WriteString(f.Spacer)
	switch {
	case IsSpindleOn(name):
		if f.SpindlePercent && f.SpindleMax > 0 {
			// controller dialect takes percent of max under P
			b.WriteString("P")
			b.WriteString(strconv.Itoa(f.Percent(v)))
		} else {
			b.WriteString("S")
			b.WriteString(formatFloat(v, f.Precision))
		}
	case IsDwell(name):
		// seconds, not a speed
		b.WriteString("S")
		b.WriteString(f.fixed(v))
	default:
		b.WriteString("S")
		b.WriteString(f.fixed(f.speed(v)))
	}
}

// Comment wraps text in the configured comment delimiters.
func (f *Formatter) Comment(text string) string {
	pre, post := f.CommentSymbols[0], f.CommentSymbols[1]
	if pre == "" && post == "" {
		pre = ";"
	}
	return pre + text + post
}
