package coursetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-coursetests/internal/db"
)

const testPoints = 10

// fixture is a Store plus the collaborator data the core does not own.
type fixture struct {
	store   Store
	addPart func(t *testing.T, id string)
	addUser func(t *testing.T, id string)
	rewards func(t *testing.T) []string
}

func memoryFixture(t *testing.T) fixture {
	m := NewMemoryStore()
	return fixture{
		store:   m,
		addPart: func(_ *testing.T, id string) { m.PutPart(Part{ID: id, Title: "Part " + id}) },
		addUser: func(_ *testing.T, id string) { m.PutUser(User{ID: id, Name: "User " + id}) },
		rewards: func(_ *testing.T) []string { return m.PointRequests() },
	}
}

func openSQLite(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(context.Background(), db.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func sqliteFixture(t *testing.T) fixture {
	d := openSQLite(t)
	return fixture{
		store: NewSQLStore(d, testPoints),
		addPart: func(t *testing.T, id string) {
			_, err := d.SQL.Exec(`INSERT INTO parts (id,course_id,title) VALUES ($1,$2,$3)`, id, "c1", "Part "+id)
			require.NoError(t, err)
		},
		addUser: func(t *testing.T, id string) {
			_, err := d.SQL.Exec(`INSERT INTO users (id,name) VALUES ($1,$2)`, id, "User "+id)
			require.NoError(t, err)
		},
		rewards: func(t *testing.T) []string {
			rows, err := d.SQL.Query(`SELECT user_id FROM point_requests ORDER BY id`)
			require.NoError(t, err)
			defer rows.Close()
			var out []string
			for rows.Next() {
				var id string
				require.NoError(t, rows.Scan(&id))
				out = append(out, id)
			}
			require.NoError(t, rows.Err())
			return out
		},
	}
}

// eachStore runs fn against every Store implementation.
func eachStore(t *testing.T, fn func(t *testing.T, f fixture)) {
	for name, mk := range map[string]func(*testing.T) fixture{
		"memory": memoryFixture,
		"sqlite": sqliteFixture,
	} {
		t.Run(name, func(t *testing.T) { fn(t, mk(t)) })
	}
}

func newTestService(store Store) *Service {
	return NewService(store, WithClock(func() time.Time { return time.Unix(1700000000, 0) }))
}

func mustCreate(t *testing.T, svc *Service, partID, title, correct string) Test {
	t.Helper()
	created, err := svc.Create(context.Background(), NewTest{PartID: partID, Title: title, CorrectAlternative: correct})
	require.NoError(t, err)
	return created
}

// ordinals returns title -> sequence number for the part and checks that the
// numbers are exactly 1..N.
func ordinals(t *testing.T, svc *Service, partID string) map[string]int {
	t.Helper()
	tests, err := svc.ListByPart(context.Background(), partID)
	require.NoError(t, err)
	out := make(map[string]int, len(tests))
	for i, tt := range tests {
		require.Equal(t, i+1, tt.SequenceNumber, "part %s is not dense: %v", partID, tests)
		out[tt.Title] = tt.SequenceNumber
	}
	return out
}

/* ---------------- Store decorators for write counting and fault injection ---------------- */

type probe struct {
	seqWrites int
	failSeqAt int // fail the n-th SetSequenceNumber call; 0 disables
	rewardErr error
}

type probeStore struct {
	Store
	p *probe
}

func (s probeStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	return s.Store.WithTx(ctx, func(tx Tx) error { return fn(probeTx{tx, s.p}) })
}

type probeTx struct {
	Tx
	p *probe
}

func (t probeTx) Tests() TestRepo       { return probeTests{t.Tx.Tests(), t.p} }
func (t probeTx) Rewards() RewardLedger { return probeRewards{t.Tx.Rewards(), t.p} }

type probeTests struct {
	TestRepo
	p *probe
}

var errInjected = errors.New("injected failure")

func (r probeTests) SetSequenceNumber(ctx context.Context, id string, seq int) error {
	r.p.seqWrites++
	if r.p.failSeqAt > 0 && r.p.seqWrites == r.p.failSeqAt {
		return errInjected
	}
	return r.TestRepo.SetSequenceNumber(ctx, id, seq)
}

type probeRewards struct {
	RewardLedger
	p *probe
}

func (r probeRewards) AddPointRequest(ctx context.Context, u User) error {
	if r.p.rewardErr != nil {
		return r.p.rewardErr
	}
	return r.RewardLedger.AddPointRequest(ctx, u)
}
