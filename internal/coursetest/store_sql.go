package coursetest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-coursetests/internal/db"
	"github.com/mind-engage/mindengage-coursetests/internal/rewards"
)

// SQLStore runs units of work on a sqlite or postgres database created by
// db.Open.
type SQLStore struct {
	db            *db.DB
	pointsPerTest int
}

// NewSQLStore returns a store whose point requests carry pointsPerTest.
func NewSQLStore(d *db.DB, pointsPerTest int) *SQLStore {
	return &SQLStore{db: d, pointsPerTest: pointsPerTest}
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&sqlTx{tx: tx, postgres: s.db.Driver.IsPostgres(), points: s.pointsPerTest})
	})
	return translate(err)
}

// translate maps driver constraint errors onto ErrConflict / ErrNotFound.
func translate(err error) error {
	switch {
	case err == nil, errors.Is(err, ErrConflict), errors.Is(err, ErrNotFound):
		return err
	case db.IsUniqueViolation(err), db.IsSerializationFailure(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

type sqlTx struct {
	tx       *sql.Tx
	postgres bool
	points   int
}

func (t *sqlTx) Tests() TestRepo       { return sqlTests{t} }
func (t *sqlTx) Attempts() AttemptRepo { return sqlAttempts{t} }
func (t *sqlTx) Parts() PartResolver   { return sqlParts{t} }
func (t *sqlTx) Users() UserResolver   { return sqlUsers{t} }
func (t *sqlTx) Rewards() RewardLedger { return sqlRewards{t} }

/* ---------------- parts & users ---------------- */

type sqlParts struct{ *sqlTx }

func (p sqlParts) FindPart(ctx context.Context, id string) (Part, error) {
	var part Part
	err := p.tx.QueryRowContext(ctx, `SELECT id,course_id,title FROM parts WHERE id=$1`, id).
		Scan(&part.ID, &part.CourseID, &part.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return Part{}, ErrNotFound
	}
	return part, err
}

type sqlUsers struct{ *sqlTx }

func (u sqlUsers) FindUser(ctx context.Context, id string) (User, error) {
	var user User
	err := u.tx.QueryRowContext(ctx, `SELECT id,name FROM users WHERE id=$1`, id).Scan(&user.ID, &user.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

type sqlRewards struct{ *sqlTx }

func (r sqlRewards) AddPointRequest(ctx context.Context, user User) error {
	return translate(rewards.Insert(ctx, r.tx, rewards.PointRequest{
		UserID:      user.ID,
		Origin:      rewards.OriginTest,
		Status:      rewards.StatusNew,
		PointsToAdd: r.points,
	}))
}

/* ---------------- tests ---------------- */

type sqlTests struct{ *sqlTx }

const selectTest = `SELECT id,part_id,title,question,alternatives_json,correct_alternative,sequence_number,created_at,updated_at FROM tests`

func (r sqlTests) LockPart(ctx context.Context, partID string) error {
	q := `SELECT id FROM parts WHERE id=$1`
	if r.postgres {
		q += ` FOR UPDATE`
	}
	var id string
	err := r.tx.QueryRowContext(ctx, q, partID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("part %q: %w", partID, ErrNotFound)
	}
	return err
}

func (r sqlTests) Count(ctx context.Context, partID string) (int, error) {
	var n int
	err := r.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tests WHERE part_id=$1`, partID).Scan(&n)
	return n, err
}

func (r sqlTests) FindByTitle(ctx context.Context, partID, title string) (Test, error) {
	return r.one(ctx, selectTest+` WHERE part_id=$1 AND title=$2`, partID, title)
}

func (r sqlTests) FindByPartAndSequence(ctx context.Context, partID string, seq int) (Test, error) {
	return r.one(ctx, selectTest+` WHERE part_id=$1 AND sequence_number=$2`, partID, seq)
}

func (r sqlTests) Get(ctx context.Context, id string) (Test, error) {
	return r.one(ctx, selectTest+` WHERE id=$1`, id)
}

func (r sqlTests) ListByPart(ctx context.Context, partID string) ([]Test, error) {
	return r.many(ctx, selectTest+` WHERE part_id=$1 ORDER BY sequence_number ASC`, partID)
}

func (r sqlTests) ListAfter(ctx context.Context, partID string, seq int) ([]Test, error) {
	return r.many(ctx, selectTest+` WHERE part_id=$1 AND sequence_number>$2 ORDER BY sequence_number ASC`, partID, seq)
}

func (r sqlTests) Insert(ctx context.Context, t Test) error {
	aj, err := json.Marshal(alternativesOrEmpty(t.Alternatives))
	if err != nil {
		return err
	}
	_, err = r.tx.ExecContext(ctx, `INSERT INTO tests
		(id,part_id,title,question,alternatives_json,correct_alternative,sequence_number,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.PartID, t.Title, t.Question, string(aj), t.CorrectAlternative, t.SequenceNumber, t.CreatedAt, t.UpdatedAt)
	return translate(err)
}

func (r sqlTests) Update(ctx context.Context, t Test) error {
	aj, err := json.Marshal(alternativesOrEmpty(t.Alternatives))
	if err != nil {
		return err
	}
	res, err := r.tx.ExecContext(ctx, `UPDATE tests
		SET part_id=$1, title=$2, question=$3, alternatives_json=$4, correct_alternative=$5, updated_at=$6
		WHERE id=$7`,
		t.PartID, t.Title, t.Question, string(aj), t.CorrectAlternative, t.UpdatedAt, t.ID)
	if err != nil {
		return translate(err)
	}
	return expectRow(res)
}

func (r sqlTests) SetSequenceNumber(ctx context.Context, id string, seq int) error {
	res, err := r.tx.ExecContext(ctx, `UPDATE tests SET sequence_number=$1 WHERE id=$2`, seq, id)
	if err != nil {
		return translate(err)
	}
	return expectRow(res)
}

func (r sqlTests) Delete(ctx context.Context, id string) error {
	res, err := r.tx.ExecContext(ctx, `DELETE FROM tests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r sqlTests) one(ctx context.Context, q string, args ...any) (Test, error) {
	t, err := scanTest(r.tx.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Test{}, ErrNotFound
	}
	return t, err
}

func (r sqlTests) many(ctx context.Context, q string, args ...any) ([]Test, error) {
	rows, err := r.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTest(row rowScanner) (Test, error) {
	var t Test
	var aj string
	if err := row.Scan(&t.ID, &t.PartID, &t.Title, &t.Question, &aj, &t.CorrectAlternative,
		&t.SequenceNumber, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Test{}, err
	}
	if err := json.Unmarshal([]byte(aj), &t.Alternatives); err != nil {
		return Test{}, fmt.Errorf("test %s: alternatives: %w", t.ID, err)
	}
	if len(t.Alternatives) == 0 {
		t.Alternatives = nil
	}
	return t, nil
}

func alternativesOrEmpty(a []Alternative) []Alternative {
	if a == nil {
		return []Alternative{}
	}
	return a
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

/* ---------------- attempts ---------------- */

type sqlAttempts struct{ *sqlTx }

func (r sqlAttempts) Count(ctx context.Context, userID, testID string) (int, error) {
	var n int
	err := r.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM test_attempts WHERE user_id=$1 AND test_id=$2`, userID, testID).Scan(&n)
	return n, err
}

func (r sqlAttempts) HasPassed(ctx context.Context, userID, testID string) (bool, error) {
	var n int
	err := r.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM test_attempts WHERE user_id=$1 AND test_id=$2 AND test_result=$3`,
		userID, testID, string(ResultCorrect)).Scan(&n)
	return n > 0, err
}

func (r sqlAttempts) Insert(ctx context.Context, a TestAttempt) error {
	_, err := r.tx.ExecContext(ctx, `INSERT INTO test_attempts (user_id,test_id,test_number,test_result,created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		a.UserID, a.TestID, a.TestNumber, string(a.TestResult), a.CreatedAt)
	return translate(err)
}

func (r sqlAttempts) List(ctx context.Context, userID, testID string) ([]TestAttempt, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT user_id,test_id,test_number,test_result,created_at
		FROM test_attempts WHERE user_id=$1 AND test_id=$2 ORDER BY test_number ASC`, userID, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TestAttempt
	for rows.Next() {
		var a TestAttempt
		var result string
		if err := rows.Scan(&a.UserID, &a.TestID, &a.TestNumber, &result, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.TestResult = TestResult(result)
		out = append(out, a)
	}
	return out, rows.Err()
}
