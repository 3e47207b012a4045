// Package layout places newly generated mind-map nodes on the canvas.
package layout

import "math"

const (
	// PlacementRadius is the distance from the anchor at which new nodes
	// are initially spread.
	PlacementRadius = 150.0

	// DefaultNodeWidth and DefaultNodeHeight are the bounding box assigned
	// to a node whose rendered size is not yet known.
	DefaultNodeWidth  = 100.0
	DefaultNodeHeight = 32.0

	// maxIterations caps the collision relaxation loop. On exhaustion the
	// best-effort layout is returned, possibly still overlapping.
	maxIterations = 100
)

// Position is a 2-D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned bounding box anchored at its top-left corner.
type Box struct {
	Position Position `json:"position"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
}

// PlaceNewNodes distributes count boxes evenly on a circle around the anchor
// and then relaxes bounding-box overlaps among the new boxes and against the
// existing ones. Existing boxes are compared by value; both sides of a
// collision move during relaxation, but displacements applied to existing
// boxes are discarded so callers see their input unchanged.
//
// The result is deterministic for a given input ordering and always has
// exactly count entries for count >= 1.
func PlaceNewNodes(anchor Position, count int, existing []Box) []Box {
	if count < 1 {
		return nil
	}

	newBoxes := make([]Box, count)
	angleStep := 2 * math.Pi / float64(count)
	for i := 0; i < count; i++ {
		angle := float64(i) * angleStep
		newBoxes[i] = Box{
			Position: Position{
				X: anchor.X + PlacementRadius*math.Cos(angle),
				Y: anchor.Y + PlacementRadius*math.Sin(angle),
			},
			Width:  DefaultNodeWidth,
			Height: DefaultNodeHeight,
		}
	}

	// Work on a combined slice so new boxes also repel each other. The
	// first count entries alias the result; the copied existing entries
	// absorb half of each push and are thrown away afterwards.
	all := make([]*Box, 0, count+len(existing))
	for i := range newBoxes {
		all = append(all, &newBoxes[i])
	}
	for i := range existing {
		clone := existing[i]
		all = append(all, &clone)
	}

	for iter := 0; iter < maxIterations; iter++ {
		collided := false
		for i := 0; i < count; i++ {
			for j := range all {
				if all[j] == all[i] {
					continue
				}
				if overlaps(all[i], all[j]) {
					separate(all[i], all[j])
					collided = true
				}
			}
		}
		if !collided {
			break
		}
	}

	return newBoxes
}

// overlaps reports whether two boxes intersect.
func overlaps(a, b *Box) bool {
	return a.Position.X < b.Position.X+b.Width &&
		a.Position.X+a.Width > b.Position.X &&
		a.Position.Y < b.Position.Y+b.Height &&
		a.Position.Y+a.Height > b.Position.Y
}

// separate pushes two overlapping boxes apart by half the penetration depth
// each, along whichever axis has the smaller overlap.
func separate(a, b *Box) {
	overlapX := math.Min(
		a.Position.X+a.Width-b.Position.X,
		b.Position.X+b.Width-a.Position.X,
	)
	overlapY := math.Min(
		a.Position.Y+a.Height-b.Position.Y,
		b.Position.Y+b.Height-a.Position.Y,
	)

	if overlapX < overlapY {
		if a.Position.X < b.Position.X {
			a.Position.X -= overlapX / 2
			b.Position.X += overlapX / 2
		} else {
			a.Position.X += overlapX / 2
			b.Position.X -= overlapX / 2
		}
	} else {
		if a.Position.Y < b.Position.Y {
			a.Position.Y -= overlapY / 2
			b.Position.Y += overlapY / 2
		} else {
			a.Position.Y += overlapY / 2
			b.Position.Y -= overlapY / 2
		}
	}
}
