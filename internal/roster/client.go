// Package roster talks to the training wing's public roster service: it
// looks up a trainee's postal routing identifiers and submits letters into
// the physical mail pipeline. Both operations are fail-soft: an unreachable
// server is reported through ServerOn=false, never through an error, so
// callers can classify outcomes without exception handling.
package roster

import (
	"context"
	"time"
)

// Member carries the two routing identifiers the mail pipeline needs.
type Member struct {
	MemberCode string `json:"member_code"`
	UnitCode   string `json:"unit_code"`
}

// Profile is the result of a roster lookup. Member is nil when the service
// answered but found no matching trainee.
type Profile struct {
	ServerOn bool
	Member   *Member
}

// SubmitResult is the result of handing a letter to the mail pipeline.
// Accepted is only meaningful when ServerOn is true.
type SubmitResult struct {
	ServerOn bool
	Accepted bool
}

// LetterPayload is everything the roster service needs to print and route
// one letter.
type LetterPayload struct {
	SenderName   string
	Relationship string
	Title        string
	Contents     string
	Password     string
	MemberCode   string
	UnitCode     string
}

// Client is the external roster collaborator.
type Client interface {
	// GetProfile resolves routing identifiers by the trainee's legal name
	// and birth date (YYYYMMDD).
	GetProfile(ctx context.Context, name, birth string) (Profile, error)

	// PostLetter submits a letter, stamped with its original authoring time
	// so delayed retries keep their place in the printed batch.
	PostLetter(ctx context.Context, p LetterPayload, createdAt time.Time) (SubmitResult, error)
}
