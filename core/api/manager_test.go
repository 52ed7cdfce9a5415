package api_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tenant-bootstrapper/core/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notification struct {
	message   string
	willRetry bool
}

type harness struct {
	mu     sync.Mutex
	sleeps []time.Duration
	notes  []notification
}

func (h *harness) sleep(_ context.Context, d time.Duration) {
	h.mu.Lock()
	h.sleeps = append(h.sleeps, d)
	h.mu.Unlock()
}

func (h *harness) notify(message string, willRetry bool) {
	h.mu.Lock()
	h.notes = append(h.notes, notification{message, willRetry})
	h.mu.Unlock()
}

func (h *harness) recorded() ([]time.Duration, []notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]time.Duration(nil), h.sleeps...), append([]notification(nil), h.notes...)
}

func newManager(t *testing.T, h *harness, tr api.Transport, opts ...api.Option) *api.Manager {
	base := []api.Option{
		api.WithTick(time.Millisecond),
		api.WithSleep(h.sleep),
		api.WithNotifier(h.notify),
	}
	m := api.NewManager(tr, append(base, opts...)...)
	t.Cleanup(m.Kill)
	return m
}

// script returns a transport answering with the given errors in order, then data.
func script(calls *int32, errs ...error) api.Transport {
	return api.TransportFunc(func(ctx context.Context, req api.Request) (map[string]any, error) {
		n := int(atomic.AddInt32(calls, 1))
		if n <= len(errs) && errs[n-1] != nil {
			return nil, errs[n-1]
		}
		return map[string]any{"item": map[string]any{"get": map[string]any{"id": "item-1"}}}, nil
	})
}

func TestManager_Call(t *testing.T) {
	rateLimited := &api.HTTPError{StatusCode: 429, Status: "429 Too Many Requests"}
	badGateway := &api.HTTPError{StatusCode: 502, Status: "502 Bad Gateway"}
	reset := &api.SystemError{Err: errors.New("read tcp: connection reset by peer")}
	queryErr := &api.QueryError{Errors: []map[string]any{{"message": "field not found"}}}

	tests := []struct {
		name       string
		errs       []error
		suppress   bool
		wantCalls  int32
		wantID     string
		wantErrors int
		wantSleeps []time.Duration
		wantNotes  []notification
	}{
		{
			name:      "Success",
			wantCalls: 1,
			wantID:    "item-1",
		},
		{
			name:       "Rate limited then success",
			errs:       []error{rateLimited},
			wantCalls:  2,
			wantID:     "item-1",
			wantSleeps: []time.Duration{5 * time.Second},
			wantNotes:  []notification{{"rate limited by the API, retrying in 5 seconds", true}},
		},
		{
			name:       "Transient errors back off linearly",
			errs:       []error{reset, badGateway},
			wantCalls:  3,
			wantID:     "item-1",
			wantSleeps: []time.Duration{time.Second, 2 * time.Second},
			wantNotes:  []notification{{reset.Error(), true}},
		},
		{
			name:       "Query error is final",
			errs:       []error{queryErr},
			wantCalls:  1,
			wantErrors: 1,
			wantNotes:  []notification{{"field not found", false}},
		},
		{
			name:       "Suppressed query error",
			errs:       []error{queryErr},
			suppress:   true,
			wantCalls:  1,
			wantErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &harness{}
			var calls int32
			m := newManager(t, h, script(&calls, tt.errs...))

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			res, err := m.Call(ctx, api.Request{Query: "query { item { get { id } } }", SuppressErrors: tt.suppress})
			require.NoError(t, err)

			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			assert.Equal(t, tt.wantID, res.String("$.item.get.id"))
			assert.Len(t, res.Errors, tt.wantErrors)

			sleeps, notes := h.recorded()
			assert.Equal(t, tt.wantSleeps, sleeps)
			assert.Equal(t, tt.wantNotes, notes)
			assert.Equal(t, 0, m.Pending())
		})
	}
}

func TestManager_EscalatesRepeatedFailures(t *testing.T) {
	badGateway := &api.HTTPError{StatusCode: 502, Status: "502 Bad Gateway"}
	reset := &api.SystemError{Err: errors.New("dial tcp: connection refused")}

	tests := []struct {
		name      string
		err       error
		wantNotes int
	}{
		{"Server errors escalate after ten failures", badGateway, 2},
		{"System errors are reported on every retry", reset, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &harness{}
			var calls int32
			errs := make([]error, 12)
			for i := range errs {
				errs[i] = tt.err
			}
			m := newManager(t, h, script(&calls, errs...), api.WithInitialWorkers(3))

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			res, err := m.Call(ctx, api.Request{Query: "query { item { get { id } } }"})
			require.NoError(t, err)
			assert.NoError(t, res.Err())
			assert.Equal(t, "item-1", res.String("$.item.get.id"))
			assert.Equal(t, int32(13), atomic.LoadInt32(&calls))

			sleeps, notes := h.recorded()
			require.Len(t, sleeps, 12)
			for i, d := range sleeps {
				assert.Equal(t, time.Duration(i+1)*time.Second, d)
			}
			require.Len(t, notes, tt.wantNotes)
			for _, n := range notes {
				assert.Equal(t, notification{tt.err.Error(), true}, n)
			}
			assert.Equal(t, 1, m.Limit())
		})
	}
}

func TestManager_RateLimitCollapsesConcurrency(t *testing.T) {
	h := &harness{}
	var calls int32
	m := newManager(t, h, script(&calls, &api.HTTPError{StatusCode: 429, Status: "429 Too Many Requests"}), api.WithInitialWorkers(4))
	assert.Equal(t, 4, m.Limit())

	_, err := m.Call(context.Background(), api.Request{Query: "{}"})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Limit())
}

func TestManager_RespectsLimit(t *testing.T) {
	h := &harness{}
	var current, peak int32
	tr := api.TransportFunc(func(ctx context.Context, req api.Request) (map[string]any, error) {
		n := atomic.AddInt32(&current, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(3 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return map[string]any{}, nil
	})
	m := newManager(t, h, tr)

	var chans []<-chan api.Result
	for i := 0; i < 6; i++ {
		chans = append(chans, m.Push(api.Request{Query: "{}"}))
	}
	for _, ch := range chans {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatal("request was not resolved")
		}
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestManager_Kill(t *testing.T) {
	h := &harness{}
	var calls int32
	m := newManager(t, h, script(&calls))
	m.Kill()
	m.Kill()

	_, err := m.Call(context.Background(), api.Request{Query: "{}"})
	assert.ErrorIs(t, err, api.ErrKilled)

	res := <-m.Push(api.Request{Query: "{}"})
	assert.Error(t, res.Err())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestManager_CallCancelled(t *testing.T) {
	h := &harness{}
	block := make(chan struct{})
	tr := api.TransportFunc(func(ctx context.Context, req api.Request) (map[string]any, error) {
		<-block
		return map[string]any{}, nil
	})
	m := newManager(t, h, tr)
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.Call(ctx, api.Request{Query: "{}"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
