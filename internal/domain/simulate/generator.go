// Package simulate generates synthetic drawing snapshot pairs with a
// controlled amount of change, for load tests and anomaly drills.
package simulate

import (
	"fmt"
	"math/rand"

	"github.com/buildtrace/buildtrace/internal/domain"
)

// Profile controls how many changes Apply introduces.
type Profile string

const (
	ProfileNone   Profile = "none"
	ProfileSmall  Profile = "small"
	ProfileMedium Profile = "medium"
	ProfileLarge  Profile = "large"
	ProfileSpike  Profile = "spike"
)

// Profiles lists every profile, mildest first.
var Profiles = []Profile{ProfileNone, ProfileSmall, ProfileMedium, ProfileLarge, ProfileSpike}

// ParseProfile validates a profile name.
func ParseProfile(s string) (Profile, error) {
	for _, p := range Profiles {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown profile %q (valid: none, small, medium, large, spike)", s)
}

type span struct{ min, max int }

type changeCounts struct{ add, remove, move span }

var profileCounts = map[Profile]changeCounts{
	ProfileSmall:  {add: span{0, 2}, remove: span{0, 2}, move: span{0, 2}},
	ProfileMedium: {add: span{2, 5}, remove: span{2, 5}, move: span{2, 5}},
	ProfileLarge:  {add: span{5, 12}, remove: span{5, 12}, move: span{3, 8}},
	ProfileSpike:  {add: span{30, 50}, remove: span{10, 20}, move: span{10, 20}},
}

var sizes = map[domain.ObjectType]struct{ width, height span }{
	domain.ObjectWall:   {span{5, 20}, span{1, 2}},
	domain.ObjectDoor:   {span{1, 3}, span{1, 3}},
	domain.ObjectWindow: {span{1, 3}, span{1, 3}},
	domain.ObjectColumn: {span{1, 2}, span{1, 2}},
	domain.ObjectBeam:   {span{3, 15}, span{1, 2}},
}

const (
	maxCoord = 50
	maxShift = 5
)

var idPrefixes = []string{"A", "B", "C", "D", "W"}

// Generator produces random snapshots. It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// New returns a generator whose output is fully determined by seed.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// between returns a uniform integer in [s.min, s.max].
func (g *Generator) between(s span) int {
	return s.min + g.rng.Intn(s.max-s.min+1)
}

// Object creates one object. An empty typ picks a random known type.
func (g *Generator) Object(id string, typ domain.ObjectType) domain.DrawingObject {
	if typ == "" {
		typ = domain.KnownObjectTypes[g.rng.Intn(len(domain.KnownObjectTypes))]
	}
	size, ok := sizes[typ]
	if !ok {
		size = sizes[domain.ObjectBeam]
	}
	width := g.between(size.width)
	height := g.between(size.height)
	return domain.DrawingObject{
		ID:     id,
		Type:   typ,
		X:      float64(g.between(span{0, maxCoord})),
		Y:      float64(g.between(span{0, maxCoord})),
		Width:  float64(width),
		Height: float64(height),
	}
}

// Base creates a drawing of n objects with unique ids such as "C3".
func (g *Generator) Base(n int) []domain.DrawingObject {
	objs := make([]domain.DrawingObject, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s%d", idPrefixes[g.rng.Intn(len(idPrefixes))], i+1)
		objs = append(objs, g.Object(id, ""))
	}
	return objs
}

// Apply returns a modified copy of base: random removals, then random moves
// of up to five units per axis, then additions with fresh "NEW<n>" ids.
// base is never mutated.
func (g *Generator) Apply(base []domain.DrawingObject, profile Profile) ([]domain.DrawingObject, error) {
	out := make([]domain.DrawingObject, len(base))
	copy(out, base)
	if profile == ProfileNone {
		return out, nil
	}
	counts, ok := profileCounts[profile]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", profile)
	}

	nAdd := g.between(counts.add)
	nRemove := g.between(counts.remove)
	nMove := g.between(counts.move)

	for i := 0; i < nRemove && len(out) > 0; i++ {
		idx := g.rng.Intn(len(out))
		out = append(out[:idx], out[idx+1:]...)
	}

	shift := span{-maxShift, maxShift}
	for i := 0; i < nMove && len(out) > 0; i++ {
		idx := g.rng.Intn(len(out))
		out[idx].X += float64(g.between(shift))
		out[idx].Y += float64(g.between(shift))
	}

	existing := make(map[string]bool, len(out)+nAdd)
	for _, o := range out {
		existing[o.ID] = true
	}
	for i := 0; i < nAdd; i++ {
		id := fmt.Sprintf("NEW%d", i+1)
		for n := 1; existing[id]; n++ {
			id = fmt.Sprintf("NEW%d_%d", i+1, n)
		}
		existing[id] = true
		out = append(out, g.Object(id, ""))
	}
	return out, nil
}

// Pair generates a base drawing and its modified successor.
func (g *Generator) Pair(profile Profile, baseSize int) (a, b []domain.DrawingObject, err error) {
	a = g.Base(baseSize)
	b, err = g.Apply(a, profile)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// RandomProfile picks any profile uniformly.
func (g *Generator) RandomProfile() Profile {
	return Profiles[g.rng.Intn(len(Profiles))]
}

// DrawingID formats the i-th (0-based) generated drawing id.
func DrawingID(i int) string {
	return fmt.Sprintf("DRAWING-%04d", i+1)
}
