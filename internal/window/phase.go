// Package window computes where a training cohort currently sits in its
// calendar: before enlistment, inside the letter-writing window, waiting for
// completion, serving, or discharged. Every breakpoint is derived from the
// cohort's enlistment date in Korea Standard Time, because the training wing
// publishes its schedule in local time.
package window

import (
	"fmt"
	"time"
)

// Phase is the lifecycle stage of a cohort at a point in time. For a fixed
// cohort the phase only ever moves forward as the clock advances.
type Phase int

const (
	Before     Phase = iota // enlistment date not reached yet
	Beginning               // first two training weeks, letters not accepted
	Training                // letter window open
	Ending                  // window closed, completion ceremony pending
	Working                 // serving after completion
	Discharged              // service finished
)

func (p Phase) String() string {
	switch p {
	case Before:
		return "Before"
	case Beginning:
		return "Beginning"
	case Training:
		return "Training"
	case Ending:
		return "Ending"
	case Working:
		return "Working"
	case Discharged:
		return "Discharged"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// seoul is the zone all breakpoints are computed in.
var seoul = mustLoadSeoul()

func mustLoadSeoul() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		// The schedule is meaningless in the wrong zone, so fall back to a
		// fixed KST offset rather than UTC when tzdata is unavailable.
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Breakpoints are the five ordered calendar instants that split a cohort's
// timeline into phases.
type Breakpoints struct {
	Enter      time.Time // enlistment day, midnight KST
	MailStart  time.Time // letter window opens
	MailEnd    time.Time // letter window closes
	Completion time.Time // basic training completion
	Discharge  time.Time // end of service
}

// ComputeBreakpoints derives the breakpoints from the cohort's stored
// enlistment and discharge dates. The program week starts on the Monday of
// the enlistment week; the letter window opens 14 days later at 09:00 and
// closes on day 30 at 17:00, with completion on day 32.
func ComputeBreakpoints(dates CohortDates) Breakpoints {
	enter := dates.Enter.In(seoul)
	start := programStart(enter)
	return Breakpoints{
		Enter:      enter,
		MailStart:  start.AddDate(0, 0, 14).Add(9 * time.Hour),
		MailEnd:    start.AddDate(0, 0, 30).Add(17 * time.Hour),
		Completion: start.AddDate(0, 0, 32),
		Discharge:  dates.Discharge.In(seoul),
	}
}

// programStart returns the Monday of the week containing the enlistment day,
// using ISO weekday numbering so a Sunday enlistment maps to the Monday six
// days earlier.
func programStart(enter time.Time) time.Time {
	iso := int(enter.Weekday())
	if iso == 0 {
		iso = 7
	}
	return enter.AddDate(0, 0, -(iso - 1))
}

// Classify maps an instant onto a phase. Intervals are half-open and
// left-inclusive: an instant exactly on a breakpoint belongs to the later
// phase.
func (b Breakpoints) Classify(at time.Time) Phase {
	switch {
	case at.Before(b.Enter):
		return Before
	case at.Before(b.MailStart):
		return Beginning
	case at.Before(b.MailEnd):
		return Training
	case at.Before(b.Completion):
		return Ending
	case at.Before(b.Discharge):
		return Working
	default:
		return Discharged
	}
}
