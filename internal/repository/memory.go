package repository

import (
	"context"
	"sync"
	"time"

	"github.com/yuchankim/trainmail/internal/model"
	"github.com/yuchankim/trainmail/internal/utils"
)

// In-memory twins of the MySQL stores. The service test suites run against
// these; they honor the same contracts, including FIFO order and the
// sentinel errors.

// MemoryTraineeRepo keeps trainees in a map.
type MemoryTraineeRepo struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*model.Trainee
}

func NewMemoryTraineeRepo() *MemoryTraineeRepo {
	return &MemoryTraineeRepo{nextID: 1, byID: map[uint64]*model.Trainee{}}
}

func (r *MemoryTraineeRepo) Create(ctx context.Context, t NewTrainee, bcryptCost int) (model.Trainee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Username == t.Username {
			return model.Trainee{}, ErrUsernameExists
		}
	}
	hash, err := utils.HashPassword(t.Password, bcryptCost)
	if err != nil {
		return model.Trainee{}, err
	}
	now := time.Now()
	rec := &model.Trainee{
		ID:           r.nextID,
		Username:     t.Username,
		PasswordHash: hash,
		Role:         "USER",
		Name:         t.Name,
		Birth:        t.Birth,
		Cohort:       t.Cohort,
		Message:      t.Message,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.nextID++
	r.byID[rec.ID] = rec
	return *rec, nil
}

func (r *MemoryTraineeRepo) FindByID(ctx context.Context, id uint64) (model.Trainee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return model.Trainee{}, ErrNotFound
	}
	return *rec, nil
}

func (r *MemoryTraineeRepo) FindByUsername(ctx context.Context, username string) (model.Trainee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.byID {
		if rec.Username == username {
			return *rec, nil
		}
	}
	return model.Trainee{}, ErrNotFound
}

func (r *MemoryTraineeRepo) UpdateRouting(ctx context.Context, id uint64, memberCode, unitCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.MemberCode = &memberCode
	rec.UnitCode = &unitCode
	rec.Connected = true
	rec.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryTraineeRepo) UpdateProfile(ctx context.Context, id uint64, edit ProfileEdit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if edit.Name != nil {
		rec.Name = *edit.Name
	}
	if edit.Birth != nil {
		rec.Birth = *edit.Birth
	}
	if edit.Cohort != nil {
		rec.Cohort = *edit.Cohort
	}
	if edit.Message != nil {
		rec.Message = *edit.Message
	}
	if edit.TouchesIdentity() {
		rec.MemberCode = nil
		rec.UnitCode = nil
		rec.Connected = false
	}
	rec.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryTraineeRepo) UpdatePassword(ctx context.Context, id uint64, password string, bcryptCost int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return err
	}
	rec.PasswordHash = hash
	rec.UpdatedAt = time.Now()
	return nil
}

// MemoryLetterRepo keeps letters in insertion order.
type MemoryLetterRepo struct {
	mu       sync.Mutex
	nextID   uint64
	byID     map[uint64]*model.Letter
	order    []uint64
	trainees *MemoryTraineeRepo
}

func NewMemoryLetterRepo(trainees *MemoryTraineeRepo) *MemoryLetterRepo {
	return &MemoryLetterRepo{nextID: 1, byID: map[uint64]*model.Letter{}, trainees: trainees}
}

func (r *MemoryLetterRepo) Create(ctx context.Context, l NewLetter) (model.Letter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := &model.Letter{
		ID:           r.nextID,
		TraineeID:    l.TraineeID,
		SenderName:   l.SenderName,
		Relationship: l.Relationship,
		Title:        l.Title,
		Contents:     l.Contents,
		Password:     l.Password,
		IsPublic:     l.IsPublic,
		CreatedAt:    time.Now(),
	}
	r.nextID++
	r.byID[rec.ID] = rec
	r.order = append(r.order, rec.ID)
	return *rec, nil
}

func (r *MemoryLetterRepo) FindByID(ctx context.Context, id uint64) (model.Letter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return model.Letter{}, ErrNotFound
	}
	return *rec, nil
}

func (r *MemoryLetterRepo) FindByIDWithTrainee(ctx context.Context, id uint64) (model.Letter, model.Trainee, error) {
	l, err := r.FindByID(ctx, id)
	if err != nil {
		return model.Letter{}, model.Trainee{}, err
	}
	t, err := r.trainees.FindByID(ctx, l.TraineeID)
	if err != nil {
		return model.Letter{}, model.Trainee{}, err
	}
	return l, t, nil
}

func (r *MemoryLetterRepo) MarkPosted(ctx context.Context, id uint64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Posted {
		return nil
	}
	rec.Posted = true
	rec.PostedAt = &at
	return nil
}

func (r *MemoryLetterRepo) FindUnpostedByTrainee(ctx context.Context, traineeID uint64) ([]model.Letter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Letter
	for _, id := range r.order {
		rec := r.byID[id]
		if rec.TraineeID == traineeID && !rec.Posted {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *MemoryLetterRepo) ListByTrainee(ctx context.Context, traineeID uint64) ([]model.Letter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Letter
	for _, id := range r.order {
		rec := r.byID[id]
		if rec.TraineeID == traineeID {
			out = append(out, *rec)
		}
	}
	return out, nil
}
