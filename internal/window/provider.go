package window

import "time"

// PhaseProvider answers "what phase is this cohort in right now". The
// coordinators depend on this capability instead of reading the clock
// themselves, so tests can pin a cohort to a phase without touching any
// shared state.
type PhaseProvider interface {
	Phase(cohort int) (Phase, error)
}

// ClockProvider classifies against the schedule table using a wall clock.
// The zero now func means time.Now. Classification is recomputed on every
// call; nothing is cached, since a phase may flip between two calls.
type ClockProvider struct {
	Table *Table
	Now   func() time.Time
}

func NewClockProvider(table *Table) *ClockProvider {
	return &ClockProvider{Table: table}
}

func (p *ClockProvider) Phase(cohort int) (Phase, error) {
	return p.PhaseAt(cohort, p.now())
}

// PhaseAt classifies the cohort at an explicit instant.
func (p *ClockProvider) PhaseAt(cohort int, at time.Time) (Phase, error) {
	dates, err := p.Table.Dates(cohort)
	if err != nil {
		return 0, err
	}
	return ComputeBreakpoints(dates).Classify(at.In(seoul)), nil
}

func (p *ClockProvider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// FixedProvider serves canned phases, one per cohort. Cohorts absent from
// the map report ErrUnknownCohort.
type FixedProvider map[int]Phase

func (p FixedProvider) Phase(cohort int) (Phase, error) {
	ph, ok := p[cohort]
	if !ok {
		return 0, ErrUnknownCohort
	}
	return ph, nil
}
