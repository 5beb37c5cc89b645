// Package surface samples the sensitivity surface z = 1/(x*y) on a square
// grid and masks every sample whose value exceeds the ceiling.
package surface

import (
	"math"

	"github.com/rxtech-lab/argo-msri/pkg/errors"
)

const (
	// DefaultDensity is the spacing between neighbouring axis samples.
	DefaultDensity = 0.01
	// DefaultCeiling bounds both the axis range and the visible z values.
	DefaultCeiling = 2.0
	// MaxAxisPoints caps the samples per axis; the grid holds its square.
	MaxAxisPoints = 5000
)

// Point is one grid sample.
type Point struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Masked bool    `json:"masked"`
}

// Grid is a sampled surface. Points are stored row-major: the y value is
// constant along a row and x varies fastest, matching a flattened meshgrid.
type Grid struct {
	Density float64
	Ceiling float64
	Axis    []float64
	Points  []Point
}

// Axis returns density, 2*density, ... covering [density, ceiling+density),
// with the sample count computed as ceil((stop-start)/step).
func Axis(density, ceiling float64) ([]float64, error) {
	if !(density > 0) || math.IsInf(density, 0) {
		return nil, errors.Newf(errors.ErrCodeInvalidDensity, "density must be a positive finite number, got %v", density)
	}

	if !(ceiling > 0) || math.IsInf(ceiling, 0) {
		return nil, errors.Newf(errors.ErrCodeInvalidCeiling, "ceiling must be a positive finite number, got %v", ceiling)
	}

	start := density
	stop := ceiling + density

	n := int(math.Ceil((stop - start) / density))
	if n > MaxAxisPoints {
		return nil, errors.Newf(errors.ErrCodeInvalidDensity, "density %v yields %d samples per axis, limit is %d", density, n, MaxAxisPoints)
	}

	axis := make([]float64, n)
	for i := range axis {
		axis[i] = start + float64(i)*density
	}

	return axis, nil
}

// Sample evaluates z = 1/(x*y) over the square grid built from Axis and masks
// the points where z > ceiling.
func Sample(density, ceiling float64) (*Grid, error) {
	axis, err := Axis(density, ceiling)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(axis)*len(axis))

	for _, y := range axis {
		for _, x := range axis {
			z := 1 / (x * y)
			points = append(points, Point{
				X:      x,
				Y:      y,
				Z:      z,
				Masked: z > ceiling,
			})
		}
	}

	return &Grid{
		Density: density,
		Ceiling: ceiling,
		Axis:    axis,
		Points:  points,
	}, nil
}

// Visible returns the unmasked points in grid order.
func (g *Grid) Visible() []Point {
	visible := make([]Point, 0, len(g.Points))

	for _, p := range g.Points {
		if !p.Masked {
			visible = append(visible, p)
		}
	}

	return visible
}

// Size returns the number of grid points, masked ones included.
func (g *Grid) Size() int {
	return len(g.Points)
}
