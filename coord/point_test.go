package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoint_Add(t *testing.T) {
	a := Point{X: 1, Y: 2, Z: 3}
	b := Point{X: 4, Y: 5, Z: 6}

	assert.Equal(t, Point{X: 5, Y: 7, Z: 9}, a.Add(b))
}

func TestPoint_Sub(t *testing.T) {
	a := Point{X: 4, Y: 5, Z: 6}
	b := Point{X: 1, Y: 2, Z: 3}

	assert.Equal(t, Point{X: 3, Y: 3, Z: 3}, a.Sub(b))
}

func TestParse(t *testing.T) {
	p, err := Parse("1,2,3")
	assert.NoError(t, err)
	assert.Equal(t, Point{X: 1, Y: 2, Z: 3}, p)

	p, err = Parse("0, -10.5, 25")
	assert.NoError(t, err)
	assert.Equal(t, Point{X: 0, Y: -10.5, Z: 25}, p)

	_, err = Parse("1,2")
	assert.Error(t, err)

	_, err = Parse("1,2,x")
	assert.Error(t, err)
}
