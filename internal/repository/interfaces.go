package repository

import (
	"context"
	"time"

	"github.com/yuchankim/trainmail/internal/model"
)

// NewTrainee carries the fields of a registration.
type NewTrainee struct {
	Username string
	Password string // plain; hashed by the store
	Name     string
	Birth    string // YYYYMMDD
	Cohort   int
	Message  string
}

// ProfileEdit is a partial update of a trainee's identity fields. Nil means
// "leave unchanged". Editing Name, Birth or Cohort invalidates previously
// resolved routing identifiers, since they were looked up under the old
// identity.
type ProfileEdit struct {
	Name    *string
	Birth   *string
	Cohort  *int
	Message *string
}

// TouchesIdentity reports whether the edit changes a roster lookup key.
func (e ProfileEdit) TouchesIdentity() bool {
	return e.Name != nil || e.Birth != nil || e.Cohort != nil
}

// TraineeRepo stores trainee accounts.
type TraineeRepo interface {
	Create(ctx context.Context, t NewTrainee, bcryptCost int) (model.Trainee, error)
	FindByID(ctx context.Context, id uint64) (model.Trainee, error)
	FindByUsername(ctx context.Context, username string) (model.Trainee, error)
	// UpdateRouting persists resolved routing identifiers and flips the
	// connected flag in one step.
	UpdateRouting(ctx context.Context, id uint64, memberCode, unitCode string) error
	UpdateProfile(ctx context.Context, id uint64, edit ProfileEdit) error
	UpdatePassword(ctx context.Context, id uint64, password string, bcryptCost int) error
}

// NewLetter carries the fields of an authored letter.
type NewLetter struct {
	TraineeID    uint64
	SenderName   string
	Relationship string
	Title        string
	Contents     string
	Password     string
	IsPublic     bool
}

// LetterRepo stores letters.
type LetterRepo interface {
	Create(ctx context.Context, l NewLetter) (model.Letter, error)
	FindByID(ctx context.Context, id uint64) (model.Letter, error)
	// FindByIDWithTrainee loads a letter joined with its owning trainee.
	FindByIDWithTrainee(ctx context.Context, id uint64) (model.Letter, model.Trainee, error)
	// MarkPosted flips the posted flag. Calling it on an already posted
	// letter leaves PostedAt untouched.
	MarkPosted(ctx context.Context, id uint64, at time.Time) error
	// FindUnpostedByTrainee returns the trainee's unsent letters in
	// ascending creation order.
	FindUnpostedByTrainee(ctx context.Context, traineeID uint64) ([]model.Letter, error)
	ListByTrainee(ctx context.Context, traineeID uint64) ([]model.Letter, error)
}

// QueueEntry is one row of a retry queue: a reference plus its insertion
// timestamp. Ordering is by insertion; the timestamp is only a processing
// cutoff guard.
type QueueEntry struct {
	ID        uint64
	RefID     uint64 // letter or trainee id, depending on the queue
	CreatedAt time.Time
}

// LetterQueueHead is the queue head joined with just enough letter state for
// the drain loop's checks, saving a second round trip.
type LetterQueueHead struct {
	QueueEntry
	Posted    bool
	TraineeID uint64
}

// TraineeQueueHead is the profile queue head joined with the trainee state
// the drain loop needs.
type TraineeQueueHead struct {
	QueueEntry
	Connected bool
	Cohort    int
}

// LetterQueue is the durable FIFO retry queue for letter deliveries.
// Implementations must guarantee insertion order and atomic single-entry
// insert/pop.
type LetterQueue interface {
	Insert(ctx context.Context, letterID uint64) (QueueEntry, error)
	Front(ctx context.Context) (QueueEntry, error)
	FrontWithLetter(ctx context.Context) (LetterQueueHead, error)
	Pop(ctx context.Context) (QueueEntry, error)
	Size(ctx context.Context) (int, error)
	Empty(ctx context.Context) (bool, error)
}

// TraineeQueue is the durable FIFO retry queue for profile resolutions.
type TraineeQueue interface {
	Insert(ctx context.Context, traineeID uint64) (QueueEntry, error)
	Front(ctx context.Context) (QueueEntry, error)
	FrontWithTrainee(ctx context.Context) (TraineeQueueHead, error)
	Pop(ctx context.Context) (QueueEntry, error)
	Size(ctx context.Context) (int, error)
	Empty(ctx context.Context) (bool, error)
}
