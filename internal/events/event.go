// Package events defines the messages published to the broker and the
// background consumer that records them.
package events

import "context"

// LetterPostedEvent is published when a letter has been handed to the
// physical mail pipeline. It carries enough for downstream consumers to log
// or notify without querying the primary database.
type LetterPostedEvent struct {
	LetterID   uint64 `json:"letter_id"`
	TraineeID  uint64 `json:"trainee_id"`
	Username   string `json:"username"`
	Cohort     int    `json:"cohort"`
	Title      string `json:"title"`
	PostedAt   string `json:"posted_at"`
	MemberCode string `json:"member_code"`
	UnitCode   string `json:"unit_code"`
}

// Publisher emits domain events. The mail coordinator treats publishing as
// best effort; a nil Publisher disables it.
type Publisher interface {
	LetterPosted(ctx context.Context, ev LetterPostedEvent) error
}
