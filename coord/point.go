package coord

import (
	"errors"
	"strconv"
	"strings"
)

type Point struct{ X, Y, Z float64 }

func (p Point) Equal(b Point) bool {
	return p.X == b.X && p.Y == b.Y && p.Z == b.Z
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	return p
}

func (p Point) String() string {
	return strconv.FormatFloat(p.X, 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Y, 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Z, 'f', -1, 64)
}

// Parse reads a point from "x,y,z" form. Whitespace around
// the separators is ignored.
func Parse(data string) (p Point, err error) {
	parts := strings.Split(data, ",")
	if len(parts) != 3 {
		return p, errors.New("invalid number of elements")
	}
	p.X, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return p, err
	}
	p.Y, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return p, err
	}
	p.Z, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return p, err
	}
	return p, nil
}
