// Package summary turns change sets into short human-readable descriptions.
package summary

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/fatih/camelcase"
)

// NoChanges is the summary of an empty change set.
const NoChanges = "No changes detected."

// Template is the deterministic summarizer. It never fails.
type Template struct{}

// Summarize implements domain.Summarizer.
func (Template) Summarize(_ context.Context, cs domain.ChangeSet) (string, error) {
	return Text(cs), nil
}

// Text renders cs as "; "-joined parts ending with a period, describing
// removals, then additions, then moves.
func Text(cs domain.ChangeSet) string {
	if cs.IsEmpty() {
		return NoChanges
	}

	var parts []string

	switch n := len(cs.Removed); {
	case n == 1:
		o := cs.Removed[0]
		parts = append(parts, fmt.Sprintf("%s %s removed", capitalize(TypeName(o.Type)), o.ID))
	case n > 1:
		parts = append(parts, groupCounts(typesOf(cs.Removed))+" removed")
	}

	switch n := len(cs.Added); {
	case n == 1:
		o := cs.Added[0]
		parts = append(parts, fmt.Sprintf("%s %s added at (%g,%g)", capitalize(TypeName(o.Type)), o.ID, o.X, o.Y))
	case n > 1:
		parts = append(parts, groupCounts(typesOf(cs.Added))+" added")
	}

	switch n := len(cs.Moved); {
	case n == 1:
		m := cs.Moved[0]
		parts = append(parts, fmt.Sprintf("%s %s moved %g units %s", capitalize(TypeName(m.Type)), m.ID, round(m.Distance), m.Direction))
	case n > 1:
		parts = append(parts, fmt.Sprintf("%d objects repositioned", n))
	}

	return strings.Join(parts, "; ") + "."
}

// TypeName humanizes an object type: "curtainWall" and "curtain_wall" both
// become "curtain wall". An empty type reads as "object".
func TypeName(t domain.ObjectType) string {
	if t == "" {
		return "object"
	}
	var words []string
	for _, w := range camelcase.Split(string(t)) {
		if !isWord(w) {
			continue
		}
		words = append(words, strings.ToLower(w))
	}
	if len(words) == 0 {
		return strings.ToLower(string(t))
	}
	return strings.Join(words, " ")
}

type typeCount struct {
	name  string
	count int
}

// countByType groups types by humanized name in first-seen order.
func countByType(types []domain.ObjectType) []typeCount {
	var out []typeCount
	pos := make(map[string]int)
	for _, t := range types {
		name := TypeName(t)
		if i, ok := pos[name]; ok {
			out[i].count++
			continue
		}
		pos[name] = len(out)
		out = append(out, typeCount{name: name, count: 1})
	}
	return out
}

func groupCounts(types []domain.ObjectType) string {
	counts := countByType(types)
	strs := make([]string, 0, len(counts))
	for _, c := range counts {
		strs = append(strs, fmt.Sprintf("%d %s", c.count, plural(c.name, c.count)))
	}
	return strings.Join(strs, ", ")
}

func typesOf(objs []domain.DrawingObject) []domain.ObjectType {
	out := make([]domain.ObjectType, len(objs))
	for i, o := range objs {
		out[i] = o.Type
	}
	return out
}

func plural(name string, n int) string {
	if n == 1 {
		return name
	}
	return name + "s"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// round keeps two decimals so that 3.0000000001 reads as 3.
func round(v float64) float64 {
	return math.Round(v*100) / 100
}
