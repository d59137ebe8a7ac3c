package changes

import (
	"math"

	"github.com/buildtrace/buildtrace/internal/domain"
)

// Diff compares two drawing snapshots and classifies their differences.
//
// Objects are matched by ID. Added objects keep the order of b, removed and
// moved objects keep the order of a. An object whose position is unchanged is
// not reported, even if its size or type changed. Diff never fails and never
// mutates its inputs; if an ID repeats within one snapshot only its first
// occurrence is considered.
func Diff(a, b []domain.DrawingObject) domain.ChangeSet {
	aIndex, aOrder := index(a)
	bIndex, bOrder := index(b)

	cs := domain.ChangeSet{
		Added:   []domain.DrawingObject{},
		Removed: []domain.DrawingObject{},
		Moved:   []domain.MovedObject{},
	}

	// 1. Added: only in b
	for _, id := range bOrder {
		if _, ok := aIndex[id]; !ok {
			cs.Added = append(cs.Added, bIndex[id])
		}
	}

	// 2. Removed and moved: walk a once
	for _, id := range aOrder {
		objA := aIndex[id]
		objB, ok := bIndex[id]
		if !ok {
			cs.Removed = append(cs.Removed, objA)
			continue
		}
		if objA.X == objB.X && objA.Y == objB.Y {
			continue
		}
		cs.Moved = append(cs.Moved, newMoved(objA, objB))
	}

	return cs
}

func index(objs []domain.DrawingObject) (map[string]domain.DrawingObject, []string) {
	byID := make(map[string]domain.DrawingObject, len(objs))
	order := make([]string, 0, len(objs))
	for _, o := range objs {
		if _, dup := byID[o.ID]; dup {
			continue
		}
		byID[o.ID] = o
		order = append(order, o.ID)
	}
	return byID, order
}

func newMoved(a, b domain.DrawingObject) domain.MovedObject {
	dx := b.X - a.X
	dy := b.Y - a.Y
	typ := b.Type
	if typ == "" {
		typ = a.Type
	}
	return domain.MovedObject{
		ID:        a.ID,
		Type:      typ,
		From:      a.Position(),
		To:        b.Position(),
		DX:        dx,
		DY:        dy,
		Distance:  math.Hypot(dx, dy),
		Direction: Direction(dx, dy),
	}
}

// Direction converts a displacement into a compass label. The y axis points
// north. Diagonals name the vertical component first ("northeast").
// A zero displacement yields "in place".
func Direction(dx, dy float64) string {
	var vertical, horizontal string
	switch {
	case dy > 0:
		vertical = "north"
	case dy < 0:
		vertical = "south"
	}
	switch {
	case dx > 0:
		horizontal = "east"
	case dx < 0:
		horizontal = "west"
	}
	if vertical == "" && horizontal == "" {
		return "in place"
	}
	return vertical + horizontal
}
