package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/yuchankim/trainmail/internal/model"
)

// MySQLLetterRepo persists letters in the 'letters' table.
type MySQLLetterRepo struct{ DB *sql.DB }

func NewMySQLLetterRepo(db *sql.DB) *MySQLLetterRepo { return &MySQLLetterRepo{DB: db} }

const letterColumns = "id, trainee_id, sender_name, relationship, title, contents, password, is_public, posted, posted_at, created_at"

// Create inserts a letter and returns the stored record.
func (r *MySQLLetterRepo) Create(ctx context.Context, l NewLetter) (model.Letter, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO letters (trainee_id, sender_name, relationship, title, contents, password, is_public) VALUES (?,?,?,?,?,?,?)",
		l.TraineeID, l.SenderName, l.Relationship, l.Title, l.Contents, l.Password, l.IsPublic)
	if err != nil {
		return model.Letter{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Letter{}, err
	}
	return r.FindByID(ctx, uint64(id))
}

// FindByID fetches a letter by id.
func (r *MySQLLetterRepo) FindByID(ctx context.Context, id uint64) (model.Letter, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+letterColumns+" FROM letters WHERE id=? LIMIT 1", id)
	return scanLetter(row)
}

// FindByIDWithTrainee loads a letter and its owner in one round trip.
func (r *MySQLLetterRepo) FindByIDWithTrainee(ctx context.Context, id uint64) (model.Letter, model.Trainee, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT l.id, l.trainee_id, l.sender_name, l.relationship, l.title, l.contents,
		       l.password, l.is_public, l.posted, l.posted_at, l.created_at,
		       t.id, t.username, t.password_hash, t.role, t.name, t.birth, t.cohort,
		       t.message, t.member_code, t.unit_code, t.connected, t.created_at, t.updated_at
		FROM letters l
		JOIN trainees t ON t.id = l.trainee_id
		WHERE l.id=? LIMIT 1`, id)

	var (
		l          model.Letter
		t          model.Trainee
		postedAt   sql.NullTime
		memberCode sql.NullString
		unitCode   sql.NullString
	)
	err := row.Scan(&l.ID, &l.TraineeID, &l.SenderName, &l.Relationship, &l.Title, &l.Contents,
		&l.Password, &l.IsPublic, &l.Posted, &postedAt, &l.CreatedAt,
		&t.ID, &t.Username, &t.PasswordHash, &t.Role, &t.Name, &t.Birth, &t.Cohort,
		&t.Message, &memberCode, &unitCode, &t.Connected, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Letter{}, model.Trainee{}, ErrNotFound
	}
	if err != nil {
		return model.Letter{}, model.Trainee{}, err
	}
	if postedAt.Valid {
		v := postedAt.Time
		l.PostedAt = &v
	}
	if memberCode.Valid {
		v := memberCode.String
		t.MemberCode = &v
	}
	if unitCode.Valid {
		v := unitCode.String
		t.UnitCode = &v
	}
	return l, t, nil
}

// MarkPosted flips the posted flag. posted_at keeps its first value if the
// letter was already posted, so re-marking is a no-op.
func (r *MySQLLetterRepo) MarkPosted(ctx context.Context, id uint64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE letters SET posted=1, posted_at=IF(posted_at IS NULL, ?, posted_at) WHERE id=?",
		at.UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// FindUnpostedByTrainee returns unsent letters oldest first.
func (r *MySQLLetterRepo) FindUnpostedByTrainee(ctx context.Context, traineeID uint64) ([]model.Letter, error) {
	return r.queryLetters(ctx,
		"SELECT "+letterColumns+" FROM letters WHERE trainee_id=? AND posted=0 ORDER BY id ASC",
		traineeID)
}

// ListByTrainee returns all of a trainee's letters oldest first.
func (r *MySQLLetterRepo) ListByTrainee(ctx context.Context, traineeID uint64) ([]model.Letter, error) {
	return r.queryLetters(ctx,
		"SELECT "+letterColumns+" FROM letters WHERE trainee_id=? ORDER BY id ASC",
		traineeID)
}

func (r *MySQLLetterRepo) queryLetters(ctx context.Context, query string, args ...interface{}) ([]model.Letter, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Letter
	for rows.Next() {
		l, err := scanLetter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLetter(row rowScanner) (model.Letter, error) {
	var (
		l        model.Letter
		postedAt sql.NullTime
	)
	err := row.Scan(&l.ID, &l.TraineeID, &l.SenderName, &l.Relationship, &l.Title,
		&l.Contents, &l.Password, &l.IsPublic, &l.Posted, &postedAt, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Letter{}, ErrNotFound
	}
	if err != nil {
		return model.Letter{}, err
	}
	if postedAt.Valid {
		v := postedAt.Time
		l.PostedAt = &v
	}
	return l, nil
}
