package coursetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps everything in process. Units of work are serialized and
// a failed one restores the state it started from. It enforces the same
// uniqueness rules as the SQL schema.
type MemoryStore struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	parts    map[string]Part
	users    map[string]User
	tests    map[string]Test
	attempts []TestAttempt
	rewards  []string // user ids, in request order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: memState{
		parts: map[string]Part{},
		users: map[string]User{},
		tests: map[string]Test{},
	}}
}

// PutPart adds or replaces a part.
func (m *MemoryStore) PutPart(p Part) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.parts[p.ID] = p
}

// PutUser adds or replaces a user.
func (m *MemoryStore) PutUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.users[u.ID] = u
}

// PointRequests returns the ids of the users point requests were issued for.
func (m *MemoryStore) PointRequests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.state.rewards...)
}

func (m *MemoryStore) WithTx(_ context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.state.clone()
	if err := fn(memTx{&m.state}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (s memState) clone() memState {
	c := memState{
		parts:    make(map[string]Part, len(s.parts)),
		users:    make(map[string]User, len(s.users)),
		tests:    make(map[string]Test, len(s.tests)),
		attempts: append([]TestAttempt(nil), s.attempts...),
		rewards:  append([]string(nil), s.rewards...),
	}
	for k, v := range s.parts {
		c.parts[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tests {
		v.Alternatives = append([]Alternative(nil), v.Alternatives...)
		c.tests[k] = v
	}
	return c
}

type memTx struct{ s *memState }

func (t memTx) Tests() TestRepo       { return memTests(t) }
func (t memTx) Attempts() AttemptRepo { return memAttempts(t) }
func (t memTx) Parts() PartResolver   { return t }
func (t memTx) Users() UserResolver   { return t }
func (t memTx) Rewards() RewardLedger { return t }

func (t memTx) FindPart(_ context.Context, id string) (Part, error) {
	p, ok := t.s.parts[id]
	if !ok {
		return Part{}, ErrNotFound
	}
	return p, nil
}

func (t memTx) FindUser(_ context.Context, id string) (User, error) {
	u, ok := t.s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (t memTx) AddPointRequest(_ context.Context, u User) error {
	if _, ok := t.s.users[u.ID]; !ok {
		return fmt.Errorf("user %q: %w", u.ID, ErrNotFound)
	}
	t.s.rewards = append(t.s.rewards, u.ID)
	return nil
}

/* ---------------- tests ---------------- */

type memTests memTx

func (r memTests) LockPart(_ context.Context, partID string) error {
	if _, ok := r.s.parts[partID]; !ok {
		return fmt.Errorf("part %q: %w", partID, ErrNotFound)
	}
	return nil
}

func (r memTests) Count(_ context.Context, partID string) (int, error) {
	n := 0
	for _, t := range r.s.tests {
		if t.PartID == partID {
			n++
		}
	}
	return n, nil
}

func (r memTests) FindByTitle(_ context.Context, partID, title string) (Test, error) {
	return r.find(func(t Test) bool { return t.PartID == partID && t.Title == title })
}

func (r memTests) FindByPartAndSequence(_ context.Context, partID string, seq int) (Test, error) {
	return r.find(func(t Test) bool { return t.PartID == partID && t.SequenceNumber == seq })
}

func (r memTests) Get(_ context.Context, id string) (Test, error) {
	t, ok := r.s.tests[id]
	if !ok {
		return Test{}, ErrNotFound
	}
	return t, nil
}

func (r memTests) ListByPart(_ context.Context, partID string) ([]Test, error) {
	return r.filter(func(t Test) bool { return t.PartID == partID }), nil
}

func (r memTests) ListAfter(_ context.Context, partID string, seq int) ([]Test, error) {
	return r.filter(func(t Test) bool { return t.PartID == partID && t.SequenceNumber > seq }), nil
}

func (r memTests) Insert(_ context.Context, t Test) error {
	if _, ok := r.s.parts[t.PartID]; !ok {
		return fmt.Errorf("part %q: %w", t.PartID, ErrNotFound)
	}
	if _, ok := r.s.tests[t.ID]; ok {
		return fmt.Errorf("test %q exists: %w", t.ID, ErrConflict)
	}
	if err := r.checkUnique(t); err != nil {
		return err
	}
	r.s.tests[t.ID] = t
	return nil
}

func (r memTests) Update(_ context.Context, t Test) error {
	cur, ok := r.s.tests[t.ID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := r.s.parts[t.PartID]; !ok {
		return fmt.Errorf("part %q: %w", t.PartID, ErrNotFound)
	}
	t.SequenceNumber = cur.SequenceNumber
	t.CreatedAt = cur.CreatedAt
	if err := r.checkUnique(t); err != nil {
		return err
	}
	r.s.tests[t.ID] = t
	return nil
}

func (r memTests) SetSequenceNumber(_ context.Context, id string, seq int) error {
	t, ok := r.s.tests[id]
	if !ok {
		return ErrNotFound
	}
	t.SequenceNumber = seq
	if err := r.checkUnique(t); err != nil {
		return err
	}
	r.s.tests[id] = t
	return nil
}

func (r memTests) Delete(_ context.Context, id string) error {
	if _, ok := r.s.tests[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.tests, id)
	r.s.attempts = filterAttempts(r.s.attempts, func(a TestAttempt) bool { return a.TestID != id })
	return nil
}

// checkUnique mirrors UNIQUE(part_id,title) and UNIQUE(part_id,sequence_number).
func (r memTests) checkUnique(t Test) error {
	for _, o := range r.s.tests {
		if o.ID == t.ID || o.PartID != t.PartID {
			continue
		}
		if o.Title == t.Title {
			return fmt.Errorf("title %q in part %q: %w", t.Title, t.PartID, ErrConflict)
		}
		if o.SequenceNumber == t.SequenceNumber {
			return fmt.Errorf("sequence %d in part %q: %w", t.SequenceNumber, t.PartID, ErrConflict)
		}
	}
	return nil
}

func (r memTests) find(match func(Test) bool) (Test, error) {
	for _, t := range r.s.tests {
		if match(t) {
			return t, nil
		}
	}
	return Test{}, ErrNotFound
}

func (r memTests) filter(match func(Test) bool) []Test {
	var out []Test
	for _, t := range r.s.tests {
		if match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out
}

/* ---------------- attempts ---------------- */

type memAttempts memTx

func (r memAttempts) Count(_ context.Context, userID, testID string) (int, error) {
	return len(r.pair(userID, testID)), nil
}

func (r memAttempts) HasPassed(_ context.Context, userID, testID string) (bool, error) {
	for _, a := range r.pair(userID, testID) {
		if a.TestResult == ResultCorrect {
			return true, nil
		}
	}
	return false, nil
}

func (r memAttempts) Insert(_ context.Context, a TestAttempt) error {
	if _, ok := r.s.users[a.UserID]; !ok {
		return fmt.Errorf("user %q: %w", a.UserID, ErrNotFound)
	}
	if _, ok := r.s.tests[a.TestID]; !ok {
		return fmt.Errorf("test %q: %w", a.TestID, ErrNotFound)
	}
	for _, o := range r.pair(a.UserID, a.TestID) {
		if o.TestNumber == a.TestNumber {
			return fmt.Errorf("attempt %d: %w", a.TestNumber, ErrConflict)
		}
	}
	r.s.attempts = append(r.s.attempts, a)
	return nil
}

func (r memAttempts) List(_ context.Context, userID, testID string) ([]TestAttempt, error) {
	out := r.pair(userID, testID)
	sort.Slice(out, func(i, j int) bool { return out[i].TestNumber < out[j].TestNumber })
	return out, nil
}

func (r memAttempts) pair(userID, testID string) []TestAttempt {
	return filterAttempts(r.s.attempts, func(a TestAttempt) bool { return a.UserID == userID && a.TestID == testID })
}

func filterAttempts(in []TestAttempt, keep func(TestAttempt) bool) []TestAttempt {
	var out []TestAttempt
	for _, a := range in {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
