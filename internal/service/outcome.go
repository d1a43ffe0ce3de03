// Package service holds the three coordinators of the letter relay: mail
// delivery, profile resolution, and the retry drains that re-run both
// against the durable queues. Expected failures travel as outcome values,
// never as errors; errors are reserved for missing records and broken
// stores.
package service

import "fmt"

// SendOutcome classifies one delivery attempt. The set is closed; callers
// switch on it to decide whether to enqueue a retry.
type SendOutcome int

const (
	// SendTooEarly: the cohort has not reached the letter window yet.
	SendTooEarly SendOutcome = iota
	// SendProfileMissing: window is open but routing identifiers are not
	// resolved; only the resolution cascade can unblock this letter.
	SendProfileMissing
	// SendServerError: the roster service was unreachable.
	SendServerError
	// SendRejected: the roster service answered but declined the letter.
	SendRejected
	// SendSuccess: the letter is posted (or delivery was waived because the
	// window has definitively closed).
	SendSuccess
)

func (o SendOutcome) String() string {
	switch o {
	case SendTooEarly:
		return "BeforeMailWindow"
	case SendProfileMissing:
		return "ProfileMissing"
	case SendServerError:
		return "ServerError"
	case SendRejected:
		return "Rejected"
	case SendSuccess:
		return "Complete"
	}
	return fmt.Sprintf("SendOutcome(%d)", int(o))
}

// ResolveOutcome classifies one profile resolution attempt.
type ResolveOutcome int

const (
	// ResolveTooEarly: the cohort has not started training, the roster will
	// not know the trainee yet.
	ResolveTooEarly ResolveOutcome = iota
	// ResolveServerError: the roster service was unreachable.
	ResolveServerError
	// ResolveNotFound: the roster answered but had no matching trainee.
	ResolveNotFound
	// ResolveDone: routing identifiers stored, account connected.
	ResolveDone
)

func (o ResolveOutcome) String() string {
	switch o {
	case ResolveTooEarly:
		return "BeforeMailWindow"
	case ResolveServerError:
		return "ServerError"
	case ResolveNotFound:
		return "NotFound"
	case ResolveDone:
		return "Complete"
	}
	return fmt.Sprintf("ResolveOutcome(%d)", int(o))
}
