package summary_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/buildtrace/buildtrace/internal/domain/changes"
	"github.com/buildtrace/buildtrace/internal/domain/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obj(id string, typ domain.ObjectType, x, y float64) domain.DrawingObject {
	return domain.DrawingObject{ID: id, Type: typ, X: x, Y: y, Width: 1, Height: 1}
}

func TestText_Empty(t *testing.T) {
	assert.Equal(t, "No changes detected.", summary.Text(domain.ChangeSet{}))
}

func TestText_ConcreteScenario(t *testing.T) {
	a := []domain.DrawingObject{obj("A1", domain.ObjectWall, 0, 0), obj("D1", domain.ObjectDoor, 5, 0)}
	b := []domain.DrawingObject{obj("A1", domain.ObjectWall, 2, 0), obj("W1", domain.ObjectWindow, 3, 1)}

	got := summary.Text(changes.Diff(a, b))
	assert.Equal(t, "Door D1 removed; Window W1 added at (3,1); Wall A1 moved 2 units east.", got)
}

func TestText_GroupsMultipleRemovalsInFirstSeenOrder(t *testing.T) {
	cs := domain.ChangeSet{Removed: []domain.DrawingObject{
		obj("D1", domain.ObjectDoor, 0, 0),
		obj("W1", domain.ObjectWindow, 0, 0),
		obj("D2", domain.ObjectDoor, 0, 0),
	}}
	assert.Equal(t, "2 doors, 1 window removed.", summary.Text(cs))
}

func TestText_GroupsMultipleAdditions(t *testing.T) {
	cs := domain.ChangeSet{Added: []domain.DrawingObject{
		obj("N1", domain.ObjectBeam, 0, 0),
		obj("N2", domain.ObjectBeam, 0, 0),
	}}
	assert.Equal(t, "2 beams added.", summary.Text(cs))
}

func TestText_ManyMoves(t *testing.T) {
	cs := domain.ChangeSet{Moved: []domain.MovedObject{{ID: "A1"}, {ID: "A2"}, {ID: "A3"}}}
	assert.Equal(t, "3 objects repositioned.", summary.Text(cs))
}

func TestText_DiagonalMoveUsesEuclideanDistance(t *testing.T) {
	cs := changes.Diff(
		[]domain.DrawingObject{obj("C1", domain.ObjectColumn, 0, 0)},
		[]domain.DrawingObject{obj("C1", domain.ObjectColumn, 3, 4)},
	)
	assert.Equal(t, "Column C1 moved 5 units northeast.", summary.Text(cs))
}

func TestTypeName(t *testing.T) {
	tests := map[domain.ObjectType]string{
		"wall":         "wall",
		"curtainWall":  "curtain wall",
		"curtain_wall": "curtain wall",
		"HVACDuct":     "hvac duct",
		"":             "object",
	}
	for in, want := range tests {
		assert.Equal(t, want, summary.TypeName(in), "type %q", in)
	}
}

func TestTemplate_NeverFails(t *testing.T) {
	text, err := summary.Template{}.Summarize(context.Background(), domain.ChangeSet{})
	require.NoError(t, err)
	assert.Equal(t, summary.NoChanges, text)
}

func TestPrompt_ItemizesSmallBuckets(t *testing.T) {
	cs := domain.ChangeSet{
		Added:   []domain.DrawingObject{obj("W1", domain.ObjectWindow, 3, 1)},
		Removed: []domain.DrawingObject{obj("D1", domain.ObjectDoor, 5, 0)},
		Moved:   []domain.MovedObject{{ID: "A1", Type: domain.ObjectWall, Distance: 2, Direction: "east"}},
	}

	p := summary.Prompt(cs)
	assert.Contains(t, p, "- 1 objects added")
	assert.Contains(t, p, "Added window W1 at position (3,1)")
	assert.Contains(t, p, "Removed door D1")
	assert.Contains(t, p, "Moved wall A1 2.0 units east")
	assert.True(t, len(p) > 0 && p[len(p)-len("Summary:"):] == "Summary:")
}

func TestPrompt_GroupsLargeBuckets(t *testing.T) {
	var added []domain.DrawingObject
	for i := 0; i < 6; i++ {
		added = append(added, obj("N"+string(rune('1'+i)), domain.ObjectWall, 0, 0))
	}
	moved := make([]domain.MovedObject, 7)

	p := summary.Prompt(domain.ChangeSet{Added: added, Moved: moved})
	assert.Contains(t, p, "Added 6 wall\n")
	assert.Contains(t, p, "Repositioned 7 objects")
	assert.NotContains(t, p, "N1")
}

type stubSummarizer struct {
	text  string
	err   error
	delay time.Duration
}

func (s stubSummarizer) Summarize(ctx context.Context, _ domain.ChangeSet) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

var oneRemoval = domain.ChangeSet{Removed: []domain.DrawingObject{obj("D1", domain.ObjectDoor, 0, 0)}}

func TestFallback_UsesPrimary(t *testing.T) {
	f := summary.NewFallback(stubSummarizer{text: "  The door was removed.  "}, time.Second, nil)

	text, err := f.Summarize(context.Background(), oneRemoval)
	require.NoError(t, err)
	assert.Equal(t, "The door was removed.", text)
}

func TestFallback_DegradesToTemplate(t *testing.T) {
	tests := map[string]stubSummarizer{
		"error":   {err: errors.New("quota exceeded")},
		"empty":   {text: "   "},
		"timeout": {text: "late", delay: time.Second},
	}
	for name, primary := range tests {
		t.Run(name, func(t *testing.T) {
			f := summary.NewFallback(primary, 20*time.Millisecond, nil)
			text, err := f.Summarize(context.Background(), oneRemoval)
			require.NoError(t, err)
			assert.Equal(t, "Door D1 removed.", text)
		})
	}
}

func TestFallback_EmptyChangeSetSkipsPrimary(t *testing.T) {
	f := summary.NewFallback(stubSummarizer{err: errors.New("must not be called")}, 0, nil)

	text, err := f.Summarize(context.Background(), domain.ChangeSet{})
	require.NoError(t, err)
	assert.Equal(t, summary.NoChanges, text)
}
