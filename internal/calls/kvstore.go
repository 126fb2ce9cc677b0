package calls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	callKeyPrefix   = "call."
	resultKeyPrefix = "result."
	maxUpdateTries  = 5
)

// KVStore persists calls in a NATS JetStream key-value bucket. The bucket
// TTL acts as retention; Prune removes older entries early.
type KVStore struct {
	kv jetstream.KeyValue
}

// KVConfig configures the key-value bucket.
type KVConfig struct {
	Bucket    string
	Retention time.Duration
}

// NewKVStore opens or creates the bucket on the given connection.
func NewKVStore(ctx context.Context, nc *nats.Conn, cfg KVConfig) (*KVStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "callscribe calls and results",
		TTL:         cfg.Retention,
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("opening bucket %s: %w", cfg.Bucket, err)
	}
	return &KVStore{kv: kv}, nil
}

func (s *KVStore) Create(ctx context.Context, call *Call) error {
	if err := checkID(call.BatchCallID); err != nil {
		return err
	}
	data, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("marshal call: %w", err)
	}
	if _, err := s.kv.Create(ctx, callKeyPrefix+call.BatchCallID, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("%w: %s", ErrCallExists, call.BatchCallID)
		}
		return fmt.Errorf("create call: %w", err)
	}
	return nil
}

func (s *KVStore) Get(ctx context.Context, id string) (*Call, error) {
	call, _, err := s.getCall(ctx, id)
	return call, err
}

func (s *KVStore) getCall(ctx context.Context, id string) (*Call, uint64, error) {
	if err := checkID(id); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrCallNotFound, id)
	}
	entry, err := s.kv.Get(ctx, callKeyPrefix+id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, 0, fmt.Errorf("%w: %s", ErrCallNotFound, id)
		}
		return nil, 0, fmt.Errorf("get call: %w", err)
	}
	var call Call
	if err := json.Unmarshal(entry.Value(), &call); err != nil {
		return nil, 0, fmt.Errorf("decode call %s: %w", id, err)
	}
	return &call, entry.Revision(), nil
}

// Update uses the entry revision for optimistic concurrency and retries on
// conflicting writes.
func (s *KVStore) Update(ctx context.Context, id string, fn func(*Call) error) (*Call, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateTries; attempt++ {
		call, rev, err := s.getCall(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(call); err != nil {
			return nil, err
		}
		call.BatchCallID = id
		data, err := json.Marshal(call)
		if err != nil {
			return nil, fmt.Errorf("marshal call: %w", err)
		}
		if _, err := s.kv.Update(ctx, callKeyPrefix+id, data, rev); err != nil {
			lastErr = err
			continue
		}
		return call, nil
	}
	return nil, fmt.Errorf("update call %s: %w", id, lastErr)
}

func (s *KVStore) Delete(ctx context.Context, id string) error {
	if _, _, err := s.getCall(ctx, id); err != nil {
		return err
	}
	if err := s.kv.Purge(ctx, callKeyPrefix+id); err != nil {
		return fmt.Errorf("delete call: %w", err)
	}
	if err := s.kv.Purge(ctx, resultKeyPrefix+id); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

func (s *KVStore) List(ctx context.Context) ([]*Call, error) {
	ids, err := s.keys(ctx, callKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*Call, 0, len(ids))
	for _, id := range ids {
		call, err := s.Get(ctx, id)
		if errors.Is(err, ErrCallNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, call)
	}
	sortCalls(out)
	return out, nil
}

func (s *KVStore) SaveResult(ctx context.Context, id string, result *Result) error {
	if _, _, err := s.getCall(ctx, id); err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if _, err := s.kv.Put(ctx, resultKeyPrefix+id, data); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *KVStore) Result(ctx context.Context, id string) (*Result, error) {
	if err := checkID(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, id)
	}
	entry, err := s.kv.Get(ctx, resultKeyPrefix+id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrResultNotFound, id)
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	var result Result
	if err := json.Unmarshal(entry.Value(), &result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	return &result, nil
}

func (s *KVStore) Results(ctx context.Context) (map[string]*Result, error) {
	ids, err := s.keys(ctx, resultKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Result, len(ids))
	for _, id := range ids {
		r, err := s.Result(ctx, id)
		if errors.Is(err, ErrResultNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = r
	}
	return out, nil
}

func (s *KVStore) Prune(ctx context.Context, before time.Time) (int, error) {
	calls, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range calls {
		if !c.CreatedAt.Before(before) {
			continue
		}
		if err := s.Delete(ctx, c.BatchCallID); err != nil && !errors.Is(err, ErrCallNotFound) {
			return n, err
		}
		n++
	}
	return n, nil
}

// Close is a no-op; the connection is owned by the caller.
func (s *KVStore) Close() error { return nil }

// keys lists IDs stored under prefix.
func (s *KVStore) keys(ctx context.Context, prefix string) ([]string, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer func() { _ = lister.Stop() }()

	var ids []string
	for key := range lister.Keys() {
		if strings.HasPrefix(key, prefix) {
			ids = append(ids, strings.TrimPrefix(key, prefix))
		}
	}
	return ids, nil
}

var _ Store = (*KVStore)(nil)
