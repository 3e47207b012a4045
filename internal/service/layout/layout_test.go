package layout

import (
	"math"
	"reflect"
	"testing"
)

func TestPlaceNewNodes_CirclePlacement(t *testing.T) {
	boxes := PlaceNewNodes(Position{X: 0, Y: 0}, 4, nil)

	if len(boxes) != 4 {
		t.Fatalf("expected 4 boxes, got %d", len(boxes))
	}

	// Evenly spread on a circle of radius 150: angles 0, pi/2, pi, 3pi/2
	want := []Position{
		{X: 150, Y: 0},
		{X: 0, Y: 150},
		{X: -150, Y: 0},
		{X: 0, Y: -150},
	}

	for i, box := range boxes {
		if math.Abs(box.Position.X-want[i].X) > 1e-9 || math.Abs(box.Position.Y-want[i].Y) > 1e-9 {
			t.Errorf("box %d: expected position %+v, got %+v", i, want[i], box.Position)
		}
		if box.Width != DefaultNodeWidth || box.Height != DefaultNodeHeight {
			t.Errorf("box %d: expected default bounding box, got %gx%g", i, box.Width, box.Height)
		}
	}
}

func TestPlaceNewNodes_AlwaysReturnsCount(t *testing.T) {
	existing := []Box{
		{Position: Position{X: 150, Y: 0}, Width: 100, Height: 32},
		{Position: Position{X: 0, Y: 150}, Width: 100, Height: 32},
	}

	for _, count := range []int{1, 2, 3, 7, 12, 25} {
		boxes := PlaceNewNodes(Position{X: 10, Y: -20}, count, existing)
		if len(boxes) != count {
			t.Errorf("count %d: expected %d boxes, got %d", count, count, len(boxes))
		}
	}
}

func TestPlaceNewNodes_ResolvesCollisionsAmongNewNodes(t *testing.T) {
	// 12 boxes on a radius-150 circle are dense enough that neighbors near
	// the top and bottom of the circle collide initially.
	boxes := PlaceNewNodes(Position{X: 0, Y: 0}, 12, nil)

	if len(boxes) != 12 {
		t.Fatalf("expected 12 boxes, got %d", len(boxes))
	}

	for i := range boxes {
		for j := i + 1; j < len(boxes); j++ {
			if overlaps(&boxes[i], &boxes[j]) {
				t.Errorf("boxes %d and %d still overlap: %+v vs %+v", i, j, boxes[i], boxes[j])
			}
		}
	}
}

func TestPlaceNewNodes_Deterministic(t *testing.T) {
	existing := []Box{
		{Position: Position{X: 150, Y: 0}, Width: 100, Height: 32},
		{Position: Position{X: -40, Y: 140}, Width: 100, Height: 32},
	}

	first := PlaceNewNodes(Position{X: 0, Y: 0}, 6, existing)
	second := PlaceNewNodes(Position{X: 0, Y: 0}, 6, existing)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical layouts for identical input, got %+v vs %+v", first, second)
	}
}

func TestPlaceNewNodes_DoesNotMutateExisting(t *testing.T) {
	existing := []Box{
		// Sits exactly where the first new box lands, forcing a collision.
		{Position: Position{X: 150, Y: 0}, Width: 100, Height: 32},
	}
	snapshot := []Box{existing[0]}

	PlaceNewNodes(Position{X: 0, Y: 0}, 4, existing)

	if !reflect.DeepEqual(existing, snapshot) {
		t.Errorf("existing boxes were mutated: %+v", existing)
	}
}
