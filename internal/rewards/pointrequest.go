package rewards

import "errors"

type Origin string

const (
	OriginManual Origin = "MANUAL"
	OriginTest   Origin = "TEST"
)

type Status string

const (
	StatusNew      Status = "NEW"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

var ErrNotFound = errors.New("point request not found")

// PointRequest asks the points module to credit a user.
type PointRequest struct {
	ID          int64  `json:"id"`
	UserID      string `json:"user_id"`
	Origin      Origin `json:"points_origin"`
	Status      Status `json:"request_status"`
	PointsToAdd int    `json:"points_to_add"`
	CreatedAt   int64  `json:"created_at"`
}
