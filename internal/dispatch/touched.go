package dispatch

import (
	"sort"
	"time"

	"personastats/internal/domain"
)

type PersonaDay struct {
	PersonaID string
	Day       string
}

// Batch-scoped accumulator of what a batch touched; handed to the aggregation
// engine once the whole batch is applied. Explicit object, no module-level
// mutable state.
type Touched struct {
	Blocks int

	personas    map[string]struct{}
	days        map[string]struct{}
	personaDays map[PersonaDay]struct{}
}

func NewTouched() *Touched {
	return &Touched{
		personas:    make(map[string]struct{}, 16),
		days:        make(map[string]struct{}, 4),
		personaDays: make(map[PersonaDay]struct{}, 16),
	}
}

// MarkTrade records a persona-scoped event: the persona, its UTC day and the
// (persona, day) pair all need recomputing
func (t *Touched) MarkTrade(personaID string, ts time.Time) {
	day := domain.DayID(ts)
	t.personas[personaID] = struct{}{}
	t.days[day] = struct{}{}
	t.personaDays[PersonaDay{PersonaID: personaID, Day: day}] = struct{}{}
}

// MarkActivity records a day-scoped event with no persona (bridge traffic)
func (t *Touched) MarkActivity(ts time.Time) {
	t.days[domain.DayID(ts)] = struct{}{}
}

// Days returns touched UTC days, sorted for deterministic aggregation order
func (t *Touched) Days() []string {
	out := make([]string, 0, len(t.days))
	for d := range t.days {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (t *Touched) PersonaDays() []PersonaDay {
	out := make([]PersonaDay, 0, len(t.personaDays))
	for pd := range t.personaDays {
		out = append(out, pd)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PersonaID != out[j].PersonaID {
			return out[i].PersonaID < out[j].PersonaID
		}
		return out[i].Day < out[j].Day
	})
	return out
}
