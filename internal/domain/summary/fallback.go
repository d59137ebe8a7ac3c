package summary

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/buildtrace/buildtrace/internal/domain"
)

// Fallback wraps a primary summarizer and degrades to the template text
// whenever the primary errors, times out or returns nothing.
type Fallback struct {
	primary domain.Summarizer
	timeout time.Duration
	logger  *slog.Logger
}

// NewFallback returns a Fallback around primary. A zero timeout means the
// caller's context is the only bound. A nil logger discards log output.
func NewFallback(primary domain.Summarizer, timeout time.Duration, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fallback{primary: primary, timeout: timeout, logger: logger}
}

// Summarize implements domain.Summarizer. It never returns an error.
func (f *Fallback) Summarize(ctx context.Context, cs domain.ChangeSet) (string, error) {
	if cs.IsEmpty() {
		return NoChanges, nil
	}
	if f.primary == nil {
		return Text(cs), nil
	}

	callCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	text, err := f.primary.Summarize(callCtx, cs)
	text = strings.TrimSpace(text)
	switch {
	case err != nil:
		f.logger.Warn("summary generation failed, using template", slog.String("error", err.Error()))
		return Text(cs), nil
	case text == "":
		f.logger.Warn("summary generation returned empty text, using template")
		return Text(cs), nil
	}
	return text, nil
}
