package coursetest

import (
	"time"

	"github.com/google/uuid"
)

// Service runs every catalog and grading operation as one unit of work on
// its Store.
type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

// WithClock overrides the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithIDs overrides test id generation.
func WithIDs(newID func() string) Option { return func(s *Service) { s.newID = newID } }

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}
