package temporal

import (
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/olebedev/when/rules/ru"
)

// Extractor finds the scheduling instant inside free reminder text.
type Extractor struct {
	parser  *when.Parser
	loc     *time.Location
	minLead time.Duration
}

// New builds an extractor for the given locales. Unknown locale codes are
// skipped; the generic numeric/common rules are always active.
func New(loc *time.Location, locales []string, minLead time.Duration) *Extractor {
	parser := when.New(nil)
	for _, locale := range locales {
		switch locale {
		case "en":
			parser.Add(en.All...)
		case "ru":
			parser.Add(ru.All...)
		}
	}
	parser.Add(common.All...)

	if loc == nil {
		loc = time.UTC
	}
	return &Extractor{parser: parser, loc: loc, minLead: minLead}
}

// FindScheduleTime scans text for every date/time expression the configured
// locales recognize and returns the latest candidate strictly after
// now+minLead, normalized to UTC. The second return is false when no
// acceptable candidate exists.
//
// Latest-wins is a heuristic: free text often contains date-like noise
// (ticket numbers, context clauses) before the intended fire time. When two
// candidates resolve to the same latest instant, whichever the scan met
// first is kept.
func (e *Extractor) FindScheduleTime(text string, now time.Time) (time.Time, bool) {
	floor := now.UTC().Add(e.minLead)
	base := now.In(e.loc)

	var (
		best  time.Time
		found bool
	)
	remaining := text
	for remaining != "" {
		result, err := e.parser.Parse(remaining, base)
		if err != nil || result == nil {
			break
		}

		candidate := result.Time.UTC()
		if candidate.After(floor) && (!found || candidate.After(best)) {
			best = candidate
			found = true
		}

		next := result.Index + len(result.Text)
		if next <= 0 || next >= len(remaining) {
			break
		}
		remaining = remaining[next:]
	}

	return best, found
}
