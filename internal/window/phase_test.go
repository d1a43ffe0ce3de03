package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(year int, month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, 0, seoul)
}

func TestBreakpointsCohort850(t *testing.T) {
	table := DefaultTable()
	dates, err := table.Dates(850)
	require.NoError(t, err)

	b := ComputeBreakpoints(dates)
	assert.Equal(t, at(2023, time.August, 14, 0, 0, 0), b.Enter)
	assert.Equal(t, at(2023, time.August, 28, 9, 0, 0), b.MailStart)
	assert.Equal(t, at(2023, time.September, 13, 17, 0, 0), b.MailEnd)
	assert.Equal(t, at(2023, time.September, 15, 0, 0, 0), b.Completion)
	assert.Equal(t, at(2025, time.May, 13, 0, 0, 0), b.Discharge)
}

func TestClassifyBoundaries(t *testing.T) {
	table := DefaultTable()
	dates, err := table.Dates(850)
	require.NoError(t, err)
	b := ComputeBreakpoints(dates)

	cases := []struct {
		name string
		at   time.Time
		want Phase
	}{
		{"day before enlistment", at(2023, time.August, 13, 23, 59, 59), Before},
		{"enlistment midnight", at(2023, time.August, 14, 0, 0, 0), Beginning},
		{"second before window opens", at(2023, time.August, 28, 8, 59, 59), Beginning},
		{"window opens", at(2023, time.August, 28, 9, 0, 0), Training},
		{"second before window closes", at(2023, time.September, 13, 16, 59, 59), Training},
		{"window closes", at(2023, time.September, 13, 17, 0, 0), Ending},
		{"eve of completion", at(2023, time.September, 14, 23, 59, 59), Ending},
		{"completion midnight", at(2023, time.September, 15, 0, 0, 0), Working},
		{"eve of discharge", at(2025, time.May, 12, 23, 59, 59), Working},
		{"discharge midnight", at(2025, time.May, 13, 0, 0, 0), Discharged},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, b.Classify(tc.at))
		})
	}
}

// Walking forward in time must never move a cohort to an earlier phase.
func TestClassifyMonotonic(t *testing.T) {
	table := DefaultTable()
	for _, cohort := range []int{845, 850, 857, 866} {
		dates, err := table.Dates(cohort)
		require.NoError(t, err)
		b := ComputeBreakpoints(dates)

		prev := b.Classify(dates.Enter.AddDate(-1, 0, 0))
		for cursor := dates.Enter.AddDate(-1, 0, 0); cursor.Before(dates.Discharge.AddDate(0, 1, 0)); cursor = cursor.Add(6 * time.Hour) {
			cur := b.Classify(cursor)
			require.GreaterOrEqual(t, int(cur), int(prev), "cohort %d regressed at %s", cohort, cursor)
			prev = cur
		}
	}
}

func TestMondayProgramStart(t *testing.T) {
	// 857 enlists on a Monday; shifting must be a no-op.
	start := programStart(at(2024, time.April, 22, 0, 0, 0))
	assert.Equal(t, at(2024, time.April, 22, 0, 0, 0), start)

	// A Wednesday enlistment rewinds two days.
	start = programStart(at(2024, time.April, 24, 0, 0, 0))
	assert.Equal(t, at(2024, time.April, 22, 0, 0, 0), start)

	// A Sunday enlistment belongs to the week that began six days earlier.
	start = programStart(at(2024, time.April, 28, 0, 0, 0))
	assert.Equal(t, at(2024, time.April, 22, 0, 0, 0), start)
}

func TestUnknownCohort(t *testing.T) {
	p := NewClockProvider(DefaultTable())
	_, err := p.Phase(99)
	assert.ErrorIs(t, err, ErrUnknownCohort)
}

func TestFixedProvider(t *testing.T) {
	p := FixedProvider{850: Training}
	ph, err := p.Phase(850)
	require.NoError(t, err)
	assert.Equal(t, Training, ph)
	_, err = p.Phase(851)
	assert.ErrorIs(t, err, ErrUnknownCohort)
}

func TestRecommend(t *testing.T) {
	table := DefaultTable()

	// Well before any known cohort: fall back to the first entry.
	assert.Equal(t, 845, table.Recommend(at(2020, time.January, 1, 0, 0, 0)))

	// The week leading up to an enlistment already recommends that cohort.
	assert.Equal(t, 850, table.Recommend(at(2023, time.August, 8, 0, 0, 0)))

	// Mid-program dates stick with the cohort in training.
	assert.Equal(t, 850, table.Recommend(at(2023, time.September, 1, 0, 0, 0)))

	// After the last known enlistment the final cohort is recommended.
	assert.Equal(t, 866, table.Recommend(at(2027, time.January, 1, 0, 0, 0)))
}
