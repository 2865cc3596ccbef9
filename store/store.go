// Package store keeps the ordered list of reports and persists it as one
// versioned envelope under a fixed key.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"ciudamos/db"
	"ciudamos/types"
)

// Key is the namespace the report list is stored under.
const Key = "@CiudamosMaps:markers"

// Observer is notified after every write attempt.
type Observer interface {
	Persisted(reports int)
	PersistFailed(op string)
}

type Option func(*Store)

// WithObserver registers o for persistence events.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithClock overrides the time source used for new report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Patch lists the fields Update may change. Nil fields are left untouched.
type Patch struct {
	Status      *types.Status
	EvidenceURI *string
	Description *string
	Urgency     *types.Urgency
	Area        *string
	Address     *string
}

type result struct {
	report types.Report
	err    error
}

type op struct {
	ctx   context.Context
	name  string
	apply func(current []types.Report) (next []types.Report, affected types.Report, err error)
	done  chan result
}

// Store is the single owner of the report list. Reads are served from an
// in-memory copy; mutations are applied one at a time, in the order they were
// submitted, by a single goroutine.
type Store struct {
	kv       db.KV
	now      func() time.Time
	observer Observer

	mu      sync.RWMutex
	reports []types.Report

	ops       chan op
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// Open loads and migrates the persisted list, then starts the mutation queue.
func Open(ctx context.Context, kv db.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:      kv,
		now:     time.Now,
		ops:     make(chan op),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	raw, err := kv.Get(ctx, Key)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("load reports: %w", err)
	}
	reports, version, err := Migrate(raw)
	if err != nil {
		return nil, err
	}
	s.reports = reports

	if len(raw) > 0 && version < Version {
		log.WithFields(log.Fields{"from": version, "to": Version, "reports": len(reports)}).Info("migrating persisted reports")
		if err := s.persist(ctx, "migrate", reports); err != nil {
			log.WithError(err).Warn("migrated reports not written, will retry on next mutation")
		}
	}

	go s.loop()
	return s, nil
}

func (s *Store) loop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.quit:
			return
		case o := <-s.ops:
			o.done <- s.run(o)
		}
	}
}

func (s *Store) run(o op) result {
	current := s.Reports()
	next, affected, err := o.apply(current)
	if err != nil {
		return result{err: err}
	}
	if next == nil {
		// Nothing changed.
		return result{report: affected}
	}
	if err := s.persist(o.ctx, o.name, next); err != nil {
		return result{err: err}
	}
	s.mu.Lock()
	s.reports = next
	s.mu.Unlock()
	return result{report: affected}
}

// persist writes the full list, retrying once.
func (s *Store) persist(ctx context.Context, name string, reports []types.Report) error {
	if reports == nil {
		reports = []types.Report{}
	}
	raw, err := json.Marshal(envelope{Version: Version, Reports: reports})
	if err != nil {
		return &PersistError{Op: name, Err: err}
	}
	if err = s.kv.Set(ctx, Key, raw); err != nil {
		log.WithError(err).WithField("op", name).Warn("persist failed, retrying")
		err = s.kv.Set(ctx, Key, raw)
	}
	if err != nil {
		if s.observer != nil {
			s.observer.PersistFailed(name)
		}
		return &PersistError{Op: name, Err: err}
	}
	if s.observer != nil {
		s.observer.Persisted(len(reports))
	}
	return nil
}

func (s *Store) submit(ctx context.Context, name string, apply func([]types.Report) ([]types.Report, types.Report, error)) (types.Report, error) {
	o := op{ctx: ctx, name: name, apply: apply, done: make(chan result, 1)}
	select {
	case <-s.quit:
		return types.Report{}, ErrClosed
	case <-ctx.Done():
		return types.Report{}, ctx.Err()
	case s.ops <- o:
	}
	res := <-o.done
	return res.report, res.err
}

// Reports returns a snapshot of the list, newest insertions first.
func (s *Store) Reports() []types.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

// Get returns the report with the given id.
func (s *Store) Get(id string) (types.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.reports, id); i >= 0 {
		return s.reports[i], nil
	}
	return types.Report{}, ErrNotFound
}

// Snapshot returns the persisted form of the current list.
func (s *Store) Snapshot() ([]byte, error) {
	return json.Marshal(envelope{Version: Version, Reports: s.Reports()})
}

// Add inserts r at the head of the list. Missing id, timestamp and status are
// filled in.
func (s *Store) Add(ctx context.Context, r types.Report) (types.Report, error) {
	if r.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return types.Report{}, fmt.Errorf("generate report id: %w", err)
		}
		r.ID = id.String()
	}
	if r.Timestamp == "" {
		r.Timestamp = FormatTime(s.now())
	}
	if r.Status == "" {
		r.Status = types.StatusNew
	}
	if !r.Status.Valid() {
		return types.Report{}, ErrInvalidStatus
	}
	if strings.TrimSpace(r.EvidenceURI) != "" && r.Status != types.StatusDone {
		return types.Report{}, ErrEvidenceWithoutDone
	}

	return s.submit(ctx, "add", func(cur []types.Report) ([]types.Report, types.Report, error) {
		if indexOf(cur, r.ID) >= 0 {
			return nil, types.Report{}, fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		next := make([]types.Report, 0, len(cur)+1)
		next = append(next, r)
		next = append(next, cur...)
		return next, r, nil
	})
}

// Remove deletes the report with the given id.
func (s *Store) Remove(ctx context.Context, id string) error {
	_, err := s.submit(ctx, "remove", func(cur []types.Report) ([]types.Report, types.Report, error) {
		i := indexOf(cur, id)
		if i < 0 {
			return nil, types.Report{}, ErrNotFound
		}
		removed := cur[i]
		next := append(cur[:i:i], cur[i+1:]...)
		return next, removed, nil
	})
	return err
}

// Update applies p to the report with the given id, enforcing the status
// lifecycle NEW, SEEN, IN_PROGRESS, DONE.
func (s *Store) Update(ctx context.Context, id string, p Patch) (types.Report, error) {
	return s.submit(ctx, "update", func(cur []types.Report) ([]types.Report, types.Report, error) {
		i := indexOf(cur, id)
		if i < 0 {
			return nil, types.Report{}, ErrNotFound
		}
		r := cur[i]

		var to types.Status
		if p.Status != nil {
			to = *p.Status
		}
		var evidence string
		if p.EvidenceURI != nil {
			evidence = *p.EvidenceURI
		}
		if err := checkTransition(r.CurrentStatus(), to, evidence); err != nil {
			return nil, r, err
		}

		if to != "" {
			r.Status = to
		}
		if evidence != "" {
			r.EvidenceURI = strings.TrimSpace(evidence)
		}
		if p.Description != nil {
			r.Description = *p.Description
		}
		if p.Urgency != nil {
			r.Urgency = *p.Urgency
		}
		if p.Area != nil {
			r.Area = *p.Area
		}
		if p.Address != nil {
			r.Address = *p.Address
		}

		next := make([]types.Report, len(cur))
		copy(next, cur)
		next[i] = r
		return next, r, nil
	})
}

// MarkSeen moves a NEW report to SEEN. Reports in any later status are
// returned unchanged.
func (s *Store) MarkSeen(ctx context.Context, id string) (types.Report, error) {
	return s.submit(ctx, "mark_seen", func(cur []types.Report) ([]types.Report, types.Report, error) {
		i := indexOf(cur, id)
		if i < 0 {
			return nil, types.Report{}, ErrNotFound
		}
		r := cur[i]
		if r.CurrentStatus() != types.StatusNew {
			return nil, r, nil
		}
		r.Status = types.StatusSeen
		next := make([]types.Report, len(cur))
		copy(next, cur)
		next[i] = r
		return next, r, nil
	})
}

// Resolve closes a report with the given evidence.
func (s *Store) Resolve(ctx context.Context, id, evidenceURI string) (types.Report, error) {
	done := types.StatusDone
	return s.Update(ctx, id, Patch{Status: &done, EvidenceURI: &evidenceURI})
}

// Clear removes every report.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.submit(ctx, "clear", func(cur []types.Report) ([]types.Report, types.Report, error) {
		return []types.Report{}, types.Report{}, nil
	})
	return err
}

// Close stops the mutation queue. Pending calls finish first; later calls
// fail with ErrClosed.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
		<-s.stopped
	})
	return nil
}

func indexOf(reports []types.Report, id string) int {
	for i := range reports {
		if reports[i].ID == id {
			return i
		}
	}
	return -1
}
