package simulate_test

import (
	"testing"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/buildtrace/buildtrace/internal/domain/changes"
	"github.com/buildtrace/buildtrace/internal/domain/simulate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	for _, p := range simulate.Profiles {
		got, err := simulate.ParseProfile(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := simulate.ParseProfile("huge")
	assert.ErrorContains(t, err, `unknown profile "huge"`)
}

func TestBase_UniqueIDsAndBounds(t *testing.T) {
	g := simulate.New(1)
	objs := g.Base(200)
	require.Len(t, objs, 200)

	seen := map[string]bool{}
	for _, o := range objs {
		assert.False(t, seen[o.ID], "duplicate id %s", o.ID)
		seen[o.ID] = true
		assert.GreaterOrEqual(t, o.X, 0.0)
		assert.LessOrEqual(t, o.X, 50.0)
		assert.GreaterOrEqual(t, o.Y, 0.0)
		assert.LessOrEqual(t, o.Y, 50.0)
		assert.Contains(t, domain.KnownObjectTypes, o.Type)
	}
	assert.NoError(t, domain.ValidateObjects(objs))
}

func TestObject_TypeSizes(t *testing.T) {
	g := simulate.New(7)
	for i := 0; i < 100; i++ {
		wall := g.Object("A1", domain.ObjectWall)
		assert.True(t, wall.Width >= 5 && wall.Width <= 20, "wall width %v", wall.Width)
		assert.True(t, wall.Height >= 1 && wall.Height <= 2, "wall height %v", wall.Height)

		col := g.Object("C1", domain.ObjectColumn)
		assert.True(t, col.Width >= 1 && col.Width <= 2)

		beam := g.Object("B1", domain.ObjectBeam)
		assert.True(t, beam.Width >= 3 && beam.Width <= 15)
	}
}

func TestSameSeedSameOutput(t *testing.T) {
	a1, b1, err := simulate.New(42).Pair(simulate.ProfileLarge, 20)
	require.NoError(t, err)
	a2, b2, err := simulate.New(42).Pair(simulate.ProfileLarge, 20)
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}

func TestApply_NoneIsIdentical(t *testing.T) {
	g := simulate.New(3)
	a, b, err := g.Pair(simulate.ProfileNone, 15)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, changes.Diff(a, b).IsEmpty())
}

func TestApply_ChangeCountsWithinProfile(t *testing.T) {
	tests := []struct {
		profile           simulate.Profile
		maxAdd, maxRemove int
	}{
		{simulate.ProfileSmall, 2, 2},
		{simulate.ProfileMedium, 5, 5},
		{simulate.ProfileLarge, 12, 12},
		{simulate.ProfileSpike, 50, 20},
	}
	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			g := simulate.New(11)
			for i := 0; i < 20; i++ {
				a, b, err := g.Pair(tt.profile, 40)
				require.NoError(t, err)
				stats := changes.Diff(a, b).Stats()
				assert.LessOrEqual(t, stats.AddedCount, tt.maxAdd)
				assert.LessOrEqual(t, stats.RemovedCount, tt.maxRemove)
				assert.NoError(t, domain.ValidateObjects(b), "generated snapshot must decode cleanly")
			}
		})
	}
}

func TestApply_SpikeAddsAtLeastThirty(t *testing.T) {
	a, b, err := simulate.New(5).Pair(simulate.ProfileSpike, 20)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, changes.Diff(a, b).Stats().AddedCount, 30)
}

func TestApply_DoesNotMutateBase(t *testing.T) {
	g := simulate.New(9)
	base := g.Base(10)
	snapshot := append([]domain.DrawingObject(nil), base...)

	_, err := g.Apply(base, simulate.ProfileLarge)
	require.NoError(t, err)
	assert.Equal(t, snapshot, base)
}

func TestApply_UnknownProfile(t *testing.T) {
	_, err := simulate.New(1).Apply(nil, "huge")
	assert.Error(t, err)
}

func TestApply_EmptyBase(t *testing.T) {
	b, err := simulate.New(1).Apply(nil, simulate.ProfileMedium)
	require.NoError(t, err)
	for _, o := range b {
		assert.Regexp(t, `^NEW\d+`, o.ID)
	}
}

func TestDrawingID(t *testing.T) {
	assert.Equal(t, "DRAWING-0001", simulate.DrawingID(0))
	assert.Equal(t, "DRAWING-0120", simulate.DrawingID(119))
}
