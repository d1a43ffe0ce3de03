package repository

import (
	"context"
	"database/sql"
)

// The durable queues are plain MySQL tables ordered by their auto-increment
// id. FIFO order therefore survives restarts, and a single-row DELETE of the
// head is the atomic pop. The created_at column is DATETIME(6) so the drain
// loops' cutoff comparison has sub-second resolution.

// MySQLLetterQueue is the letter-retry queue over the 'letter_queue' table.
type MySQLLetterQueue struct{ DB *sql.DB }

func NewMySQLLetterQueue(db *sql.DB) *MySQLLetterQueue { return &MySQLLetterQueue{DB: db} }

func (q *MySQLLetterQueue) Insert(ctx context.Context, letterID uint64) (QueueEntry, error) {
	res, err := q.DB.ExecContext(ctx,
		"INSERT INTO letter_queue (letter_id) VALUES (?)", letterID)
	if err != nil {
		return QueueEntry{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return QueueEntry{}, err
	}
	return q.byID(ctx, uint64(id))
}

func (q *MySQLLetterQueue) Front(ctx context.Context) (QueueEntry, error) {
	row := q.DB.QueryRowContext(ctx,
		"SELECT id, letter_id, created_at FROM letter_queue ORDER BY id ASC LIMIT 1")
	return scanQueueEntry(row)
}

// FrontWithLetter peeks the head joined with the letter's posted flag and
// owner, which the drain loop needs before deciding to dispatch.
func (q *MySQLLetterQueue) FrontWithLetter(ctx context.Context) (LetterQueueHead, error) {
	var h LetterQueueHead
	err := q.DB.QueryRowContext(ctx, `
		SELECT q.id, q.letter_id, q.created_at, l.posted, l.trainee_id
		FROM letter_queue q
		JOIN letters l ON l.id = q.letter_id
		ORDER BY q.id ASC LIMIT 1`).
		Scan(&h.ID, &h.RefID, &h.CreatedAt, &h.Posted, &h.TraineeID)
	if err == sql.ErrNoRows {
		return LetterQueueHead{}, ErrQueueEmpty
	}
	return h, err
}

func (q *MySQLLetterQueue) Pop(ctx context.Context) (QueueEntry, error) {
	head, err := q.Front(ctx)
	if err != nil {
		return QueueEntry{}, err
	}
	_, err = q.DB.ExecContext(ctx, "DELETE FROM letter_queue WHERE id=?", head.ID)
	return head, err
}

func (q *MySQLLetterQueue) Size(ctx context.Context) (int, error) {
	var n int
	err := q.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM letter_queue").Scan(&n)
	return n, err
}

func (q *MySQLLetterQueue) Empty(ctx context.Context) (bool, error) {
	n, err := q.Size(ctx)
	return n == 0, err
}

func (q *MySQLLetterQueue) byID(ctx context.Context, id uint64) (QueueEntry, error) {
	row := q.DB.QueryRowContext(ctx,
		"SELECT id, letter_id, created_at FROM letter_queue WHERE id=?", id)
	return scanQueueEntry(row)
}

// MySQLTraineeQueue is the profile-retry queue over the 'trainee_queue'
// table.
type MySQLTraineeQueue struct{ DB *sql.DB }

func NewMySQLTraineeQueue(db *sql.DB) *MySQLTraineeQueue { return &MySQLTraineeQueue{DB: db} }

func (q *MySQLTraineeQueue) Insert(ctx context.Context, traineeID uint64) (QueueEntry, error) {
	res, err := q.DB.ExecContext(ctx,
		"INSERT INTO trainee_queue (trainee_id) VALUES (?)", traineeID)
	if err != nil {
		return QueueEntry{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return QueueEntry{}, err
	}
	row := q.DB.QueryRowContext(ctx,
		"SELECT id, trainee_id, created_at FROM trainee_queue WHERE id=?", id)
	return scanQueueEntry(row)
}

func (q *MySQLTraineeQueue) Front(ctx context.Context) (QueueEntry, error) {
	row := q.DB.QueryRowContext(ctx,
		"SELECT id, trainee_id, created_at FROM trainee_queue ORDER BY id ASC LIMIT 1")
	return scanQueueEntry(row)
}

// FrontWithTrainee peeks the head joined with the connected flag and cohort.
func (q *MySQLTraineeQueue) FrontWithTrainee(ctx context.Context) (TraineeQueueHead, error) {
	var h TraineeQueueHead
	err := q.DB.QueryRowContext(ctx, `
		SELECT q.id, q.trainee_id, q.created_at, t.connected, t.cohort
		FROM trainee_queue q
		JOIN trainees t ON t.id = q.trainee_id
		ORDER BY q.id ASC LIMIT 1`).
		Scan(&h.ID, &h.RefID, &h.CreatedAt, &h.Connected, &h.Cohort)
	if err == sql.ErrNoRows {
		return TraineeQueueHead{}, ErrQueueEmpty
	}
	return h, err
}

func (q *MySQLTraineeQueue) Pop(ctx context.Context) (QueueEntry, error) {
	head, err := q.Front(ctx)
	if err != nil {
		return QueueEntry{}, err
	}
	_, err = q.DB.ExecContext(ctx, "DELETE FROM trainee_queue WHERE id=?", head.ID)
	return head, err
}

func (q *MySQLTraineeQueue) Size(ctx context.Context) (int, error) {
	var n int
	err := q.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM trainee_queue").Scan(&n)
	return n, err
}

func (q *MySQLTraineeQueue) Empty(ctx context.Context) (bool, error) {
	n, err := q.Size(ctx)
	return n == 0, err
}

func scanQueueEntry(row rowScanner) (QueueEntry, error) {
	var e QueueEntry
	err := row.Scan(&e.ID, &e.RefID, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return QueueEntry{}, ErrQueueEmpty
	}
	return e, err
}
