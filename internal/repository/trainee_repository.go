package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/yuchankim/trainmail/internal/model"
	"github.com/yuchankim/trainmail/internal/utils"
)

// MySQLTraineeRepo persists trainee accounts in the 'trainees' table.
type MySQLTraineeRepo struct{ DB *sql.DB }

func NewMySQLTraineeRepo(db *sql.DB) *MySQLTraineeRepo { return &MySQLTraineeRepo{DB: db} }

const traineeColumns = "id, username, password_hash, role, name, birth, cohort, message, member_code, unit_code, connected, created_at, updated_at"

// Create inserts a trainee and returns the stored record.
func (r *MySQLTraineeRepo) Create(ctx context.Context, t NewTrainee, bcryptCost int) (model.Trainee, error) {
	username := strings.TrimSpace(t.Username)
	hash, err := utils.HashPassword(t.Password, bcryptCost)
	if err != nil {
		return model.Trainee{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO trainees (username, password_hash, role, name, birth, cohort, message) VALUES (?,?,?,?,?,?,?)",
		username, hash, "USER", t.Name, t.Birth, t.Cohort, t.Message)
	if err != nil {
		// 1062 = duplicate key on the unique username index
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.Trainee{}, ErrUsernameExists
		}
		return model.Trainee{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Trainee{}, err
	}
	return r.FindByID(ctx, uint64(id))
}

// FindByID fetches a trainee by id.
func (r *MySQLTraineeRepo) FindByID(ctx context.Context, id uint64) (model.Trainee, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+traineeColumns+" FROM trainees WHERE id=? LIMIT 1", id)
	return scanTrainee(row)
}

// FindByUsername fetches a trainee by login name.
func (r *MySQLTraineeRepo) FindByUsername(ctx context.Context, username string) (model.Trainee, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+traineeColumns+" FROM trainees WHERE username=? LIMIT 1",
		strings.TrimSpace(username))
	return scanTrainee(row)
}

// UpdateRouting stores resolved routing identifiers and marks the account
// connected.
func (r *MySQLTraineeRepo) UpdateRouting(ctx context.Context, id uint64, memberCode, unitCode string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE trainees SET member_code=?, unit_code=?, connected=1 WHERE id=?",
		memberCode, unitCode, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateProfile applies a partial edit. Identity edits clear the routing
// identifiers so the next resolution looks the trainee up fresh.
func (r *MySQLTraineeRepo) UpdateProfile(ctx context.Context, id uint64, edit ProfileEdit) error {
	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	if edit.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *edit.Name)
	}
	if edit.Birth != nil {
		sets = append(sets, "birth=?")
		args = append(args, *edit.Birth)
	}
	if edit.Cohort != nil {
		sets = append(sets, "cohort=?")
		args = append(args, *edit.Cohort)
	}
	if edit.Message != nil {
		sets = append(sets, "message=?")
		args = append(args, *edit.Message)
	}
	if edit.TouchesIdentity() {
		sets = append(sets, "member_code=NULL", "unit_code=NULL", "connected=0")
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE trainees SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdatePassword replaces the stored hash.
func (r *MySQLTraineeRepo) UpdatePassword(ctx context.Context, id uint64, password string, bcryptCost int) error {
	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE trainees SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrainee(row rowScanner) (model.Trainee, error) {
	var (
		t          model.Trainee
		memberCode sql.NullString
		unitCode   sql.NullString
	)
	err := row.Scan(&t.ID, &t.Username, &t.PasswordHash, &t.Role, &t.Name, &t.Birth,
		&t.Cohort, &t.Message, &memberCode, &unitCode, &t.Connected, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Trainee{}, ErrNotFound
	}
	if err != nil {
		return model.Trainee{}, err
	}
	if memberCode.Valid {
		v := memberCode.String
		t.MemberCode = &v
	}
	if unitCode.Valid {
		v := unitCode.String
		t.UnitCode = &v
	}
	return t, nil
}

// requireRow turns a zero-row update into ErrNotFound so callers can tell a
// missing target apart from a no-op.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
