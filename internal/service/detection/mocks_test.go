package detection

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/voicegate/fraud-manager-backend/internal/domain/errors"
	"github.com/voicegate/fraud-manager-backend/internal/domain/fraud"
)

// memEventStore is an in-memory EventStore with failure injection.
type memEventStore struct {
	mu           sync.Mutex
	observations []fraud.Observation

	recordErr error
	// readErr fails DistinctNationalIDs for the given window lengths
	// (keyed by the since offset is fragile, so key by call count).
	readErrs map[int]error
	reads    int
}

func (s *memEventStore) RecordObservation(_ context.Context, obs *fraud.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	s.observations = append(s.observations, *obs)
	return nil
}

func (s *memEventStore) DistinctNationalIDs(_ context.Context, phoneNumber string, since time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.reads
	s.reads++
	if err, ok := s.readErrs[call]; ok {
		return nil, err
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, obs := range s.observations {
		if obs.PhoneNumber != phoneNumber || obs.ObservedAt.Before(since) {
			continue
		}
		if _, ok := seen[obs.NationalID]; ok {
			continue
		}
		seen[obs.NationalID] = struct{}{}
		ids = append(ids, obs.NationalID)
	}
	return ids, nil
}

func (s *memEventStore) seed(phoneNumber, nationalID string, observedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observations = append(s.observations, fraud.Observation{
		PhoneNumber: phoneNumber,
		NationalID:  nationalID,
		ObservedAt:  observedAt,
	})
}

func (s *memEventStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observations)
}

// memBlockRegistry is an in-memory BlockRegistry with failure injection.
type memBlockRegistry struct {
	mu      sync.Mutex
	entries map[string]fraud.BlockEntry

	getErr error
	putErr error
	puts   int
}

func newMemBlockRegistry() *memBlockRegistry {
	return &memBlockRegistry{entries: make(map[string]fraud.BlockEntry)}
}

func (r *memBlockRegistry) GetBlockEntry(_ context.Context, phoneNumber string) (*fraud.BlockEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	entry, ok := r.entries[phoneNumber]
	if !ok {
		return nil, domainErrors.ErrBlockEntryNotFound
	}
	return &entry, nil
}

func (r *memBlockRegistry) PutBlockEntry(_ context.Context, entry *fraud.BlockEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	r.puts++
	r.entries[entry.PhoneNumber] = *entry
	return nil
}

func (r *memBlockRegistry) get(phoneNumber string) (fraud.BlockEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[phoneNumber]
	return entry, ok
}

// collectRunner captures submitted tasks so tests control when deferred
// evaluation happens.
type collectRunner struct {
	mu    sync.Mutex
	tasks []func(ctx context.Context)
}

func (r *collectRunner) Submit(task func(ctx context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
}

func (r *collectRunner) runAll(ctx context.Context) {
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = nil
	r.mu.Unlock()
	for _, task := range tasks {
		task(ctx)
	}
}
