package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInstruction(t *testing.T) {
	in, err := NewInstruction("G0", map[byte]float64{'X': 10, 'Y': 20})
	assert.NoError(t, err)
	assert.Equal(t, "G0", in.Name)

	v, ok := in.Param('X')
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = in.Param('F')
	assert.False(t, ok)

	_, err = NewInstruction("", nil)
	assert.Error(t, err)

	_, err = NewInstruction("G0", map[byte]float64{'K': 1})
	assert.Error(t, err)
}

func TestInstruction_AddParam(t *testing.T) {
	in := MustInstruction("G0", nil)

	assert.NoError(t, in.AddParam('F', 25))
	v, ok := in.Param('F')
	assert.True(t, ok)
	assert.Equal(t, 25.0, v)

	assert.NoError(t, in.AddParam('F', 30))
	v, _ = in.Param('F')
	assert.Equal(t, 30.0, v)

	assert.Error(t, in.AddParam('K', 1))
	assert.Error(t, in.AddParam('x', 1))
}

func TestInstruction_Equal(t *testing.T) {
	a := MustInstruction("G0", map[byte]float64{'X': 1, 'Y': 2})
	b := MustInstruction("G0", map[byte]float64{'Y': 2, 'X': 1})
	assert.True(t, a.Equal(b))

	c := MustInstruction("G1", map[byte]float64{'X': 1, 'Y': 2})
	assert.False(t, a.Equal(c))

	d := MustInstruction("G0", map[byte]float64{'X': 1})
	assert.False(t, a.Equal(d))

	e := MustInstruction("G0", map[byte]float64{'X': 1, 'Z': 2})
	assert.False(t, a.Equal(e))

	var nilIn *Instruction
	assert.False(t, a.Equal(nilIn))
	assert.True(t, nilIn.Equal(nil))
}

func TestInstruction_String(t *testing.T) {
	in := MustInstruction("G1", map[byte]float64{'F': 25, 'X': 1.5, 'Z': -2})
	assert.Equal(t, "G1 X1.5 Z-2 F25", in.String())
}
