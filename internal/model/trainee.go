package model

import "time"

// Trainee represents an account in the `trainees` table. One account maps to
// exactly one trainee in a cohort; the family shares its credentials. The
// routing identifiers stay NULL until the roster service resolves them, and
// Connected flips to true at the same moment.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  Role         – USER or ADMIN.
//  Name         – the trainee's legal name, as known to the roster.
//  Birth        – birth date in YYYYMMDD form, the roster's lookup key.
//  Cohort       – intake cohort number.
//  Message      – free-form greeting shown on the profile page.
//  MemberCode   – roster member identifier (nil until resolved).
//  UnitCode     – roster unit identifier (nil until resolved).
//  Connected    – true once both routing identifiers are known.
type Trainee struct {
	ID           uint64
	Username     string
	PasswordHash string
	Role         string
	Name         string
	Birth        string
	Cohort       int
	Message      string
	MemberCode   *string
	UnitCode     *string
	Connected    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of a token is stored.
type RefreshToken struct {
	ID        uint64
	TraineeID uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
