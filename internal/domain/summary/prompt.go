package summary

import (
	"fmt"
	"strings"

	"github.com/buildtrace/buildtrace/internal/domain"
)

// itemizeLimit is the largest bucket whose objects are listed one by one.
const itemizeLimit = 5

// Prompt builds the instruction sent to a language model for cs.
func Prompt(cs domain.ChangeSet) string {
	stats := cs.Stats()

	var b strings.Builder
	b.WriteString("You are analyzing changes in a construction drawing between version A and version B.\n")
	b.WriteString("Generate a concise, professional summary in 1-2 sentences.\n\n")
	b.WriteString("Changes:\n")
	fmt.Fprintf(&b, "- %d objects added\n", stats.AddedCount)
	fmt.Fprintf(&b, "- %d objects removed\n", stats.RemovedCount)
	fmt.Fprintf(&b, "- %d objects moved\n\n", stats.MovedCount)
	b.WriteString("Details:\n")
	for _, line := range details(cs) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("\nWrite a natural, professional summary suitable for architects and construction managers.\n")
	b.WriteString("Be specific with object IDs when there are few changes. Use aggregate counts for many changes.\n")
	b.WriteString("Mention spatial relationships when relevant (e.g., \"near Door D1\", \"in the northwest corner\").\n\n")
	b.WriteString("Summary:")
	return b.String()
}

func details(cs domain.ChangeSet) []string {
	var lines []string

	if len(cs.Added) <= itemizeLimit {
		for _, o := range cs.Added {
			lines = append(lines, fmt.Sprintf("Added %s %s at position (%g,%g)", TypeName(o.Type), o.ID, o.X, o.Y))
		}
	} else {
		lines = append(lines, "Added "+rawCounts(typesOf(cs.Added)))
	}

	if len(cs.Removed) <= itemizeLimit {
		for _, o := range cs.Removed {
			lines = append(lines, fmt.Sprintf("Removed %s %s", TypeName(o.Type), o.ID))
		}
	} else {
		lines = append(lines, "Removed "+rawCounts(typesOf(cs.Removed)))
	}

	if len(cs.Moved) <= itemizeLimit {
		for _, m := range cs.Moved {
			lines = append(lines, fmt.Sprintf("Moved %s %s %.1f units %s", TypeName(m.Type), m.ID, m.Distance, m.Direction))
		}
	} else {
		lines = append(lines, fmt.Sprintf("Repositioned %d objects", len(cs.Moved)))
	}

	return lines
}

func rawCounts(types []domain.ObjectType) string {
	counts := countByType(types)
	strs := make([]string, 0, len(counts))
	for _, c := range counts {
		strs = append(strs, fmt.Sprintf("%d %s", c.count, c.name))
	}
	return strings.Join(strs, ", ")
}
