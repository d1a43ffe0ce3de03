package model

import "time"

// Letter is one family-written letter in the `letters` table. A letter is
// immutable after authoring except for the Posted/PostedAt pair, which moves
// from (false, nil) to (true, timestamp) exactly once and never back.
//
// Fields:
//  ID           – primary key identifier.
//  TraineeID    – owning trainee account.
//  SenderName   – who wrote the letter.
//  Relationship – sender's relationship to the trainee.
//  Title        – letter subject line.
//  Contents     – letter body.
//  Password     – read password required by the mail pipeline.
//  IsPublic     – whether the letter is listed publicly on the profile.
//  Posted       – true once handed to the mail pipeline (or the window
//                 closed and delivery was waived).
//  PostedAt     – when Posted flipped (nil before that).
type Letter struct {
	ID           uint64
	TraineeID    uint64
	SenderName   string
	Relationship string
	Title        string
	Contents     string
	Password     string
	IsPublic     bool
	Posted       bool
	PostedAt     *time.Time
	CreatedAt    time.Time
}
