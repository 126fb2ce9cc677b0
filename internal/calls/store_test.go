package calls

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/callscribe/internal/extraction"
)

func newCall(id string, created time.Time) *Call {
	return &Call{
		BatchCallID: id,
		PhoneNumber: "+15551234567",
		AgentID:     "agent_" + id,
		AgentName:   "AI Assistant",
		Questions:   []string{"How are you feeling?", "What is your email?"},
		Status:      StatusPending,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func newResult(convID string) *Result {
	return &Result{
		ConversationID:    convID,
		Transcript:        "I feel 8 out of 10",
		ExtractedInfo:     extraction.Extract("I feel 8 out of 10", []string{"On a scale from 1 to 10, how are you feeling?"}),
		ProcessedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		RawTranscriptType: "text",
		ProcessingNotes:   "Transcript was text format, converted to string",
	}
}

type storeFactory func(t *testing.T) Store

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"nats_kv": func(t *testing.T) Store {
			nc := connectTestNATS(t)
			s, err := NewKVStore(context.Background(), nc, KVConfig{Bucket: "calls_test", Retention: time.Hour})
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_CreateGet(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

			require.NoError(t, s.Create(ctx, newCall("btcal_1", created)))
			assert.ErrorIs(t, s.Create(ctx, newCall("btcal_1", created)), ErrCallExists)

			got, err := s.Get(ctx, "btcal_1")
			require.NoError(t, err)
			assert.Equal(t, "agent_btcal_1", got.AgentID)
			assert.Equal(t, []string{"How are you feeling?", "What is your email?"}, got.Questions)
			assert.True(t, created.Equal(got.CreatedAt))

			_, err = s.Get(ctx, "btcal_missing")
			assert.ErrorIs(t, err, ErrCallNotFound)
		})
	}
}

func TestStore_InvalidID(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			err := factory(t).Create(context.Background(), newCall("bad id/with.dots", time.Now()))
			assert.ErrorIs(t, err, ErrInvalidID)
		})
	}
}

func TestStore_Update(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			require.NoError(t, s.Create(ctx, newCall("btcal_1", time.Now())))

			updated, err := s.Update(ctx, "btcal_1", func(c *Call) error {
				c.Status = StatusCompleted
				c.BatchCallID = "ignored"
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, StatusCompleted, updated.Status)
			assert.Equal(t, "btcal_1", updated.BatchCallID)

			got, err := s.Get(ctx, "btcal_1")
			require.NoError(t, err)
			assert.Equal(t, StatusCompleted, got.Status)

			_, err = s.Update(ctx, "btcal_1", func(c *Call) error { return assert.AnError })
			assert.ErrorIs(t, err, assert.AnError)

			_, err = s.Update(ctx, "btcal_missing", func(c *Call) error { return nil })
			assert.ErrorIs(t, err, ErrCallNotFound)
		})
	}
}

func TestStore_Results(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			require.NoError(t, s.Create(ctx, newCall("btcal_1", time.Now())))

			_, err := s.Result(ctx, "btcal_1")
			assert.ErrorIs(t, err, ErrResultNotFound)
			assert.ErrorIs(t, s.SaveResult(ctx, "btcal_missing", newResult("c")), ErrCallNotFound)

			require.NoError(t, s.SaveResult(ctx, "btcal_1", newResult("conv_1")))
			got, err := s.Result(ctx, "btcal_1")
			require.NoError(t, err)
			assert.Equal(t, "conv_1", got.ConversationID)
			entry, ok := got.ExtractedInfo.Get("question_1")
			require.True(t, ok)
			assert.Equal(t, "8/10", entry.Answer)

			all, err := s.Results(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
			assert.Contains(t, all, "btcal_1")
		})
	}
}

func TestStore_ListDeletePrune(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

			require.NoError(t, s.Create(ctx, newCall("btcal_c", base.Add(2*time.Hour))))
			require.NoError(t, s.Create(ctx, newCall("btcal_a", base)))
			require.NoError(t, s.Create(ctx, newCall("btcal_b", base.Add(time.Hour))))
			require.NoError(t, s.SaveResult(ctx, "btcal_a", newResult("conv_a")))

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "btcal_a", list[0].BatchCallID)
			assert.Equal(t, "btcal_c", list[2].BatchCallID)

			require.NoError(t, s.Delete(ctx, "btcal_b"))
			assert.ErrorIs(t, s.Delete(ctx, "btcal_b"), ErrCallNotFound)

			n, err := s.Prune(ctx, base.Add(90*time.Minute))
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			_, err = s.Result(ctx, "btcal_a")
			assert.ErrorIs(t, err, ErrResultNotFound)

			list, err = s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "btcal_c", list[0].BatchCallID)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, newCall("btcal_1", time.Now())))

	got, err := s.Get(ctx, "btcal_1")
	require.NoError(t, err)
	got.Questions[0] = "mutated"
	got.Status = "mutated"

	again, err := s.Get(ctx, "btcal_1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
	assert.Equal(t, "How are you feeling?", again.Questions[0])
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := newCall("btcal_1", time.Now())
	c.Questions = nil
	require.NoError(t, s.Create(ctx, c))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "btcal_1", func(c *Call) error {
				c.Questions = append(c.Questions, "q")
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "btcal_1")
	require.NoError(t, err)
	assert.Len(t, got.Questions, 50)
}

func TestIsTerminal(t *testing.T) {
	tests := map[string]bool{
		"completed":   true,
		"COMPLETED":   true,
		"failed":      true,
		"cancelled":   true,
		"canceled":    true,
		"pending":     false,
		"in_progress": false,
		"":            false,
	}
	for status, want := range tests {
		assert.Equal(t, want, IsTerminal(status), status)
	}
}
