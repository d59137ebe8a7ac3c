package tui

import (
	"fmt"
	"strings"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// ── warm palette ──
var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
	info    = lipgloss.Color("#8B949E") // soft blue-gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	infoStyle     = lipgloss.NewStyle().Foreground(info)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnTagStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderChangeSet formats a comparison for the terminal.
func RenderChangeSet(cs domain.ChangeSet, summary string) string {
	var b strings.Builder
	stats := cs.Stats()

	// ── Header ──
	title := headerStyle.Render("buildtrace")
	subtitle := dimStyle.Render("Drawing changes")
	counts := fmt.Sprintf("%s  %s  %s",
		passStyle.Render(fmt.Sprintf("+%d added", stats.AddedCount)),
		failStyle.Render(fmt.Sprintf("-%d removed", stats.RemovedCount)),
		warnStyle.Render(fmt.Sprintf("~%d moved", stats.MovedCount)),
	)
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + counts))
	b.WriteString("\n\n")

	b.WriteString("  " + titleStyle.Render(summary) + "\n")

	if cs.IsEmpty() {
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("\n  " + separatorLine + "\n\n")

	for _, o := range cs.Removed {
		fmt.Fprintf(&b, "    %s %s %s\n", failStyle.Render("−"), padRight(o.ID, 10), dimStyle.Render(string(o.Type)))
	}
	for _, o := range cs.Added {
		fmt.Fprintf(&b, "    %s %s %s  %s\n", passStyle.Render("+"), padRight(o.ID, 10), dimStyle.Render(padRight(string(o.Type), 8)),
			faintStyle.Render(fmt.Sprintf("at (%g,%g)", o.X, o.Y)))
	}
	for _, m := range cs.Moved {
		fmt.Fprintf(&b, "    %s %s %s  %s\n", warnStyle.Render("~"), padRight(m.ID, 10), dimStyle.Render(padRight(string(m.Type), 8)),
			faintStyle.Render(fmt.Sprintf("(%g,%g) → (%g,%g)  %.2f units %s", m.From.X, m.From.Y, m.To.X, m.To.Y, m.Distance, m.Direction)))
	}

	b.WriteString("\n")
	return b.String()
}

// RenderMetrics formats a metrics snapshot with its most recent hour buckets.
func RenderMetrics(s domain.MetricsSnapshot) string {
	var b strings.Builder

	b.WriteString("\n  " + titleStyle.Render("Job Metrics") + "\n")
	b.WriteString("  " + separatorLine + "\n\n")

	rate := int(s.SuccessRate + 0.5)
	fmt.Fprintf(&b, "  %s %s  %s\n", padRight("success rate", 16), coloredBar(rate, 20),
		lipgloss.NewStyle().Bold(true).Foreground(rateColor(rate)).Render(fmt.Sprintf("%.1f%%", s.SuccessRate)))
	fmt.Fprintf(&b, "  %s %s\n", padRight("jobs", 16),
		dimStyle.Render(fmt.Sprintf("%d total  %d ok  %d failed  %d missing input", s.TotalJobs, s.SuccessfulJobs, s.FailedJobs, s.MissingInputFailures)))
	fmt.Fprintf(&b, "  %s %s\n", padRight("latency", 16),
		dimStyle.Render(fmt.Sprintf("p50 %.3fs  p95 %.3fs  p99 %.3fs", s.P50, s.P95, s.P99)))
	if s.DataQualityEvents > 0 {
		fmt.Fprintf(&b, "  %s %s\n", padRight("data quality", 16), warnStyle.Render(fmt.Sprintf("%d events", s.DataQualityEvents)))
	}

	if len(s.HourBuckets) > 0 {
		b.WriteString("\n  " + titleStyle.Render("Changes per hour") + "\n\n")
		buckets := s.HourBuckets
		if len(buckets) > 12 {
			buckets = buckets[len(buckets)-12:]
		}
		peak := 0
		for _, hb := range buckets {
			peak = max(peak, hb.Total())
		}
		for _, hb := range buckets {
			pct := 0
			if peak > 0 {
				pct = hb.Total() * 100 / peak
			}
			fmt.Fprintf(&b, "  %s %s  %s\n",
				dimStyle.Render(hb.Hour.UTC().Format("01-02 15:04")),
				plainBar(pct, 30),
				infoStyle.Render(fmt.Sprintf("%d (+%d −%d ~%d)", hb.Total(), hb.Added, hb.Removed, hb.Moved)))
		}
	}

	b.WriteString("\n")
	return b.String()
}

// RenderHealth formats the anomaly rule results.
func RenderHealth(h domain.Health) string {
	var b strings.Builder
	if h.Status == domain.HealthHealthy {
		b.WriteString("  " + passStyle.Render("● healthy") + "\n")
		return b.String()
	}

	b.WriteString("  " + errorTagStyle.Render("● degraded") + "  " + warnTagStyle.Render(fmt.Sprintf("%d warnings", len(h.Warnings))) + "\n\n")
	for _, w := range h.Warnings {
		fmt.Fprintf(&b, "    %s %s\n", warnTagStyle.Render("warn "), dimStyle.Render(w))
	}
	return b.String()
}

// RenderBatch formats the result of a local batch run.
func RenderBatch(r *domain.BatchReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s  %s  %s\n",
		titleStyle.Render(fmt.Sprintf("%d jobs", len(r.Jobs))),
		passStyle.Render(fmt.Sprintf("%d succeeded", r.Succeeded)),
		failStyle.Render(fmt.Sprintf("%d failed", len(r.Failed))),
	)
	if len(r.Failed) > 0 {
		b.WriteString("\n")
		for _, f := range r.Failed {
			kind := string(f.ErrorKind)
			if kind == "" {
				kind = "error"
			}
			fmt.Fprintf(&b, "    %s %s\n", errorTagStyle.Render(padRight(kind, 16)), f.DrawingID)
			fmt.Fprintf(&b, "         %s\n", dimStyle.Render(f.Error))
		}
	}
	b.WriteString("\n")
	return b.String()
}

// RenderHistory formats the batch run history for terminal output.
func RenderHistory(entries []domain.RunEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No run history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Run History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for i, e := range entries {
		hash := e.CommitHash
		if len(hash) > 7 {
			hash = hash[:7]
		}
		if hash == "" {
			hash = "·······"
		}
		date := e.Timestamp
		if len(date) > 10 {
			date = date[:10]
		}

		rate := lipgloss.NewStyle().
			Foreground(rateColor(int(e.SuccessRate + 0.5))).
			Render(fmt.Sprintf("%5.1f%%", e.SuccessRate))

		health := passStyle.Render("healthy")
		if e.Health == domain.HealthDegraded {
			health = warnStyle.Render("degraded")
		}

		line := fmt.Sprintf("  %s  %s  %s  %s  %s",
			dimStyle.Render(date),
			faintStyle.Render(hash),
			rate,
			dimStyle.Render(fmt.Sprintf("%d/%d jobs", e.Succeeded, e.Jobs)),
			health,
		)

		if i > 0 {
			diff := e.SuccessRate - entries[i-1].SuccessRate
			if diff > 0 {
				line += "  " + passStyle.Render(fmt.Sprintf("↑%.1f", diff))
			} else if diff < 0 {
				line += "  " + failStyle.Render(fmt.Sprintf("↓%.1f", -diff))
			}
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	return b.String()
}

func coloredBar(pct, width int) string {
	filled := max(0, min(pct*width/100, width))
	empty := width - filled

	color := rateColor(pct)
	filledStr := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	emptyStr := lipgloss.NewStyle().Foreground(faint).Render(strings.Repeat("░", empty))
	return filledStr + emptyStr
}

func plainBar(pct, width int) string {
	filled := max(0, min(pct*width/100, width))
	return lipgloss.NewStyle().Foreground(accent).Render(strings.Repeat("▇", filled)) +
		strings.Repeat(" ", width-filled)
}

func rateColor(pct int) lipgloss.Color {
	switch {
	case pct >= 95:
		return success
	case pct >= 90:
		return lipgloss.Color("#A3E635") // lime
	case pct >= 75:
		return warning
	default:
		return danger
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
