package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryLetterQueue is the in-memory letter-retry queue. Now is injectable
// so tests can steer entry timestamps around the drain cutoff.
type MemoryLetterQueue struct {
	mu      sync.Mutex
	nextID  uint64
	entries []QueueEntry
	letters *MemoryLetterRepo
	Now     func() time.Time
}

func NewMemoryLetterQueue(letters *MemoryLetterRepo) *MemoryLetterQueue {
	return &MemoryLetterQueue{nextID: 1, letters: letters}
}

func (q *MemoryLetterQueue) Insert(ctx context.Context, letterID uint64) (QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e := QueueEntry{ID: q.nextID, RefID: letterID, CreatedAt: q.now()}
	q.nextID++
	q.entries = append(q.entries, e)
	return e, nil
}

func (q *MemoryLetterQueue) Front(ctx context.Context) (QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return QueueEntry{}, ErrQueueEmpty
	}
	return q.entries[0], nil
}

func (q *MemoryLetterQueue) FrontWithLetter(ctx context.Context) (LetterQueueHead, error) {
	front, err := q.Front(ctx)
	if err != nil {
		return LetterQueueHead{}, err
	}
	l, err := q.letters.FindByID(ctx, front.RefID)
	if err != nil {
		return LetterQueueHead{}, err
	}
	return LetterQueueHead{QueueEntry: front, Posted: l.Posted, TraineeID: l.TraineeID}, nil
}

func (q *MemoryLetterQueue) Pop(ctx context.Context) (QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return QueueEntry{}, ErrQueueEmpty
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	return head, nil
}

func (q *MemoryLetterQueue) Size(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries), nil
}

func (q *MemoryLetterQueue) Empty(ctx context.Context) (bool, error) {
	n, err := q.Size(ctx)
	return n == 0, err
}

func (q *MemoryLetterQueue) now() time.Time {
	if q.Now != nil {
		return q.Now()
	}
	return time.Now()
}

// MemoryTraineeQueue is the in-memory profile-retry queue.
type MemoryTraineeQueue struct {
	mu       sync.Mutex
	nextID   uint64
	entries  []QueueEntry
	trainees *MemoryTraineeRepo
	Now      func() time.Time
}

func NewMemoryTraineeQueue(trainees *MemoryTraineeRepo) *MemoryTraineeQueue {
	return &MemoryTraineeQueue{nextID: 1, trainees: trainees}
}

func (q *MemoryTraineeQueue) Insert(ctx context.Context, traineeID uint64) (QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e := QueueEntry{ID: q.nextID, RefID: traineeID, CreatedAt: q.now()}
	q.nextID++
	q.entries = append(q.entries, e)
	return e, nil
}

func (q *MemoryTraineeQueue) Front(ctx context.Context) (QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return QueueEntry{}, ErrQueueEmpty
	}
	return q.entries[0], nil
}

func (q *MemoryTraineeQueue) FrontWithTrainee(ctx context.Context) (TraineeQueueHead, error) {
	front, err := q.Front(ctx)
	if err != nil {
		return TraineeQueueHead{}, err
	}
	t, err := q.trainees.FindByID(ctx, front.RefID)
	if err != nil {
		return TraineeQueueHead{}, err
	}
	return TraineeQueueHead{QueueEntry: front, Connected: t.Connected, Cohort: t.Cohort}, nil
}

func (q *MemoryTraineeQueue) Pop(ctx context.Context) (QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return QueueEntry{}, ErrQueueEmpty
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	return head, nil
}

func (q *MemoryTraineeQueue) Size(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries), nil
}

func (q *MemoryTraineeQueue) Empty(ctx context.Context) (bool, error) {
	n, err := q.Size(ctx)
	return n == 0, err
}

func (q *MemoryTraineeQueue) now() time.Time {
	if q.Now != nil {
		return q.Now()
	}
	return time.Now()
}
