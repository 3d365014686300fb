package rewards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Execer lets Insert run on a *sql.DB or inside a caller's *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Insert writes a new point request. Origin and Status default to MANUAL and
// NEW when empty.
func Insert(ctx context.Context, q Execer, pr PointRequest) error {
	if pr.Origin == "" {
		pr.Origin = OriginManual
	}
	if pr.Status == "" {
		pr.Status = StatusNew
	}
	if pr.CreatedAt == 0 {
		pr.CreatedAt = time.Now().Unix()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO point_requests (user_id, points_origin, request_status, points_to_add, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		pr.UserID, string(pr.Origin), string(pr.Status), pr.PointsToAdd, pr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert point request: %w", err)
	}
	return nil
}

// SQLStore reads point requests and tracks their delivery to the points
// module.
type SQLStore struct{ DB *sql.DB }

const selectPointRequest = `SELECT pr.id, pr.user_id, pr.points_origin, pr.request_status, pr.points_to_add, pr.created_at FROM point_requests pr`

func (s *SQLStore) Get(ctx context.Context, id int64) (PointRequest, error) {
	row := s.DB.QueryRowContext(ctx, selectPointRequest+` WHERE pr.id=$1`, id)
	pr, err := scanPointRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PointRequest{}, fmt.Errorf("point request %d: %w", id, ErrNotFound)
	}
	return pr, err
}

func (s *SQLStore) FindByUser(ctx context.Context, userID string) ([]PointRequest, error) {
	rows, err := s.DB.QueryContext(ctx, selectPointRequest+` WHERE pr.user_id=$1 ORDER BY pr.id`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Pending returns requests that were never delivered, or whose delivery
// failed fewer than maxRetries times, oldest first.
func (s *SQLStore) Pending(ctx context.Context, limit, maxRetries int) ([]PointRequest, error) {
	rows, err := s.DB.QueryContext(ctx, selectPointRequest+`
		LEFT JOIN point_request_dispatch d ON d.point_request_id = pr.id
		WHERE d.point_request_id IS NULL OR (d.status <> 'ok' AND d.retries < $1)
		ORDER BY pr.id
		LIMIT $2`, maxRetries, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *SQLStore) MarkPending(ctx context.Context, id int64) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO point_request_dispatch (point_request_id, status, retries, updated_at)
		VALUES ($1,'pending',0,$2)
		ON CONFLICT (point_request_id)
		DO UPDATE SET status='pending', updated_at=EXCLUDED.updated_at`,
		id, time.Now().Unix())
	return err
}

func (s *SQLStore) MarkOK(ctx context.Context, id int64) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE point_request_dispatch
		   SET status='ok', last_error=NULL, updated_at=$1
		 WHERE point_request_id=$2`, time.Now().Unix(), id)
	return err
}

func (s *SQLStore) MarkFailed(ctx context.Context, id int64, lastErr string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO point_request_dispatch (point_request_id, status, retries, last_error, updated_at)
		VALUES ($1,'failed',1,$2,$3)
		ON CONFLICT (point_request_id)
		DO UPDATE SET
			status='failed',
			retries=point_request_dispatch.retries+1,
			last_error=$2,
			updated_at=$3`,
		id, lastErr, time.Now().Unix())
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPointRequest(row scanner) (PointRequest, error) {
	var pr PointRequest
	var origin, status string
	if err := row.Scan(&pr.ID, &pr.UserID, &origin, &status, &pr.PointsToAdd, &pr.CreatedAt); err != nil {
		return PointRequest{}, err
	}
	pr.Origin, pr.Status = Origin(origin), Status(status)
	return pr, nil
}

func collect(rows *sql.Rows) ([]PointRequest, error) {
	defer rows.Close()
	var out []PointRequest
	for rows.Next() {
		pr, err := scanPointRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}
