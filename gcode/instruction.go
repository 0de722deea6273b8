package gcode

import (
	"bytes"
	"errors"
	"strings"
)

// ParamOrder is the canonical parameter alphabet in emission order.
// Letters outside this set are rejected at construction.
var ParamOrder = []byte("XYZABCIJFSTQRLHDPO")

func ValidParam(letter byte) bool {
	return bytes.IndexByte(ParamOrder, letter) >= 0
}

// Instruction is a single machine instruction: a mnemonic plus named
// numeric parameters. Parameters hold canonical internal units
// (millimeters, millimeters per second, rpm); conversion happens at
// render time.
type Instruction struct {
	Name string

	params map[byte]float64
}

func NewInstruction(name string, params map[byte]float64) (*Instruction, error) {
	if name == "" {
		return nil, errors.New("empty instruction name")
	}
	in := &Instruction{Name: name}
	for letter, v := range params {
		if err := in.AddParam(letter, v); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func MustInstruction(name string, params map[byte]float64) *Instruction {
	in, err := NewInstruction(name, params)
	if err != nil {
		panic(err)
	}
	return in
}

// AddParam sets letter to value, overwriting any prior value.
func (in *Instruction) AddParam(letter byte, value float64) error {
	if !ValidParam(letter) {
		return errors.New("invalid parameter letter: " + string(letter))
	}
	if in.params == nil {
		in.params = make(map[byte]float64)
	}
	in.params[letter] = value
	return nil
}

func (in *Instruction) Param(letter byte) (float64, bool) {
	v, ok := in.params[letter]
	return v, ok
}

func (in *Instruction) Has(letter byte) bool {
	_, ok := in.params[letter]
	return ok
}

// Params returns a copy of the parameter set.
func (in *Instruction) Params() map[byte]float64 {
	cp := make(map[byte]float64, len(in.params))
	for letter, v := range in.params {
		cp[letter] = v
	}
	return cp
}

// Equal reports structural equality: same name, same parameter set.
func (in *Instruction) Equal(other *Instruction) bool {
	if in == nil || other == nil {
		return in == other
	}
	if in.Name != other.Name || len(in.params) != len(other.params) {
		return false
	}
	for letter, v := range in.params {
		ov, ok := other.params[letter]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// String renders the instruction with untrimmed internal values, for
// logs and tests. Output formatting lives in Formatter.
func (in *Instruction) String() string {
	var b strings.Builder
	b.WriteString(in.Name)
	for _, letter := range ParamOrder {
		v, ok := in.params[letter]
		if !ok {
			continue
		}
		b.WriteByte(' ')
		b.WriteByte(letter)
		b.WriteString(formatFloat(v, -1))
	}
	return b.String()
}
