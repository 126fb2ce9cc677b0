package calls

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"
)

// Store persists calls and their results.
type Store interface {
	// Create stores a new call. Returns ErrCallExists if the ID is taken.
	Create(ctx context.Context, call *Call) error
	Get(ctx context.Context, id string) (*Call, error)
	// Update applies fn to the stored call and persists the result.
	Update(ctx context.Context, id string, fn func(*Call) error) (*Call, error)
	// Delete removes a call and its result.
	Delete(ctx context.Context, id string) error
	// List returns all calls ordered by creation time.
	List(ctx context.Context) ([]*Call, error)
	SaveResult(ctx context.Context, id string, result *Result) error
	Result(ctx context.Context, id string) (*Result, error)
	// Results returns every stored result keyed by batch call ID.
	Results(ctx context.Context) (map[string]*Result, error)
	// Prune deletes calls created before the cutoff and returns how many.
	Prune(ctx context.Context, before time.Time) (int, error)
	Close() error
}

var validID = regexp.MustCompile(`^[A-Za-z0-9_\-=]{1,256}$`)

func checkID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// MemoryStore keeps calls in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	calls   map[string]*Call
	results map[string]*Result
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		calls:   make(map[string]*Call),
		results: make(map[string]*Result),
	}
}

func (s *MemoryStore) Create(_ context.Context, call *Call) error {
	if err := checkID(call.BatchCallID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calls[call.BatchCallID]; ok {
		return fmt.Errorf("%w: %s", ErrCallExists, call.BatchCallID)
	}
	s.calls[call.BatchCallID] = call.clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	call, ok := s.calls[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCallNotFound, id)
	}
	return call.clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*Call) error) (*Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.calls[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCallNotFound, id)
	}
	updated := call.clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	updated.BatchCallID = id
	s.calls[id] = updated
	return updated.clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calls[id]; !ok {
		return fmt.Errorf("%w: %s", ErrCallNotFound, id)
	}
	delete(s.calls, id)
	delete(s.results, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Call, error) {
	s.mu.RLock()
	out := make([]*Call, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.clone())
	}
	s.mu.RUnlock()
	sortCalls(out)
	return out, nil
}

func (s *MemoryStore) SaveResult(_ context.Context, id string, result *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calls[id]; !ok {
		return fmt.Errorf("%w: %s", ErrCallNotFound, id)
	}
	r := *result
	s.results[id] = &r
	return nil
}

func (s *MemoryStore) Result(_ context.Context, id string) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, id)
	}
	out := *r
	return &out, nil
}

func (s *MemoryStore) Results(_ context.Context) (map[string]*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Result, len(s.results))
	for id, r := range s.results {
		cp := *r
		out[id] = &cp
	}
	return out, nil
}

func (s *MemoryStore) Prune(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, c := range s.calls {
		if c.CreatedAt.Before(before) {
			delete(s.calls, id)
			delete(s.results, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }

func sortCalls(calls []*Call) {
	sort.Slice(calls, func(i, j int) bool {
		if calls[i].CreatedAt.Equal(calls[j].CreatedAt) {
			return calls[i].BatchCallID < calls[j].BatchCallID
		}
		return calls[i].CreatedAt.Before(calls[j].CreatedAt)
	})
}

var _ Store = (*MemoryStore)(nil)
