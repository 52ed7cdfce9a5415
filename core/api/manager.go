package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the outcome recorded in the concurrency window.
type Status string

const (
	StatusOK          Status = "ok"
	StatusError       Status = "error"
	StatusRateLimited Status = "rate-limited"
)

const (
	tickInterval        = 5 * time.Millisecond
	rateLimitWait       = 5 * time.Second
	backoffUnit         = time.Second
	historySize         = 20
	errorThreshold      = 5
	failNotifyThreshold = 10
	minWorkers          = 1
	maxWorkers          = 5
	rateLimitMessage    = "rate limited by the API, retrying in 5 seconds"
)

// ErrorNotifier is told about failed requests and whether they will be retried.
type ErrorNotifier func(message string, willRetry bool)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for verbose request logging.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithNotifier sets the error notifier.
func WithNotifier(n ErrorNotifier) Option {
	return func(m *Manager) { m.notify = n }
}

// WithInitialWorkers sets the starting concurrency limit, clamped to [1,5].
func WithInitialWorkers(n int) Option {
	return func(m *Manager) { m.limit = clampWorkers(n) }
}

// WithVerbose logs every request at debug level.
func WithVerbose(v bool) Option {
	return func(m *Manager) { m.verbose = v }
}

// WithSleep replaces the wait used for rate limit and backoff pauses.
func WithSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(m *Manager) {
		if fn != nil {
			m.sleep = fn
		}
	}
}

// WithTick sets the queue polling interval.
func WithTick(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.tick = d
		}
	}
}

type queued struct {
	id        string
	ctx       context.Context
	req       Request
	failCount int
	working   bool
	done      chan Result
}

// Manager is the single gateway for remote calls. It is safe for concurrent use.
type Manager struct {
	transport Transport
	logger    *zap.Logger
	notify    ErrorNotifier
	verbose   bool
	sleep     func(ctx context.Context, d time.Duration)
	tick      time.Duration

	mu      sync.Mutex
	queue   []*queued
	limit   int
	history []Status
	killed  bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a Manager and starts its polling loop.
func NewManager(t Transport, opts ...Option) *Manager {
	m := &Manager{
		transport: t,
		logger:    zap.NewNop(),
		sleep:     sleepContext,
		tick:      tickInterval,
		limit:     minWorkers,
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.loop()
	return m
}

// Push enqueues req and returns a channel that receives its result once.
func (m *Manager) Push(req Request) <-chan Result {
	item, err := m.enqueue(context.Background(), req)
	if err != nil {
		ch := make(chan Result, 1)
		ch <- Result{Errors: []map[string]any{{"message": err.Error()}}}
		return ch
	}
	return item.done
}

// Call enqueues req and waits for its result. Query errors are returned inside
// the Result; the error return is reserved for cancellation and ErrKilled.
func (m *Manager) Call(ctx context.Context, req Request) (Result, error) {
	item, err := m.enqueue(ctx, req)
	if err != nil {
		return Result{}, err
	}

	select {
	case res := <-item.done:
		return res, nil
	case <-ctx.Done():
		m.abandon(item)
		return Result{}, ctx.Err()
	}
}

// Kill halts the polling loop. Queued requests are never resolved.
func (m *Manager) Kill() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.killed = true
		m.mu.Unlock()
		close(m.stop)
	})
}

// Limit returns the current concurrency limit.
func (m *Manager) Limit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limit
}

// Pending returns the number of queued requests, in flight included.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Manager) enqueue(ctx context.Context, req Request) (*queued, error) {
	item := &queued{
		id:   uuid.NewString(),
		ctx:  ctx,
		req:  req,
		done: make(chan Result, 1),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.killed {
		return nil, ErrKilled
	}
	m.queue = append(m.queue, item)
	return item, nil
}

func (m *Manager) loop() {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.work()
		}
	}
}

// work starts at most one queued request per tick.
func (m *Manager) work() {
	m.mu.Lock()
	if m.killed {
		m.mu.Unlock()
		return
	}

	inFlight := 0
	var next *queued
	for _, item := range m.queue {
		if item.working {
			inFlight++
		} else if next == nil {
			next = item
		}
	}
	if next == nil || inFlight >= m.limit {
		m.mu.Unlock()
		return
	}
	next.working = true
	m.mu.Unlock()

	go m.execute(next)
}

func (m *Manager) execute(item *queued) {
	if err := item.ctx.Err(); err != nil {
		m.finish(item, Result{Errors: []map[string]any{{"message": err.Error()}}})
		return
	}

	start := time.Now()
	data, err := m.transport.Do(item.ctx, item.req)
	if m.verbose {
		m.logger.Debug("api request",
			zap.String("id", item.id),
			zap.Int("fail_count", item.failCount),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
	}

	if err == nil {
		m.record(StatusOK)
		m.finish(item, Result{Data: data})
		return
	}

	switch Classify(err) {
	case ClassRateLimited:
		m.notifyError(item, rateLimitMessage, true)
		m.record(StatusRateLimited)
		m.sleep(item.ctx, rateLimitWait)
		m.release(item)
	case ClassTransient:
		m.record(StatusError)
		fails := m.fail(item)
		// System errors are reported on every retry; server hiccups only once
		// they keep failing.
		var sysErr *SystemError
		if errors.As(err, &sysErr) || fails > failNotifyThreshold {
			m.notifyError(item, err.Error(), true)
		}
		m.sleep(item.ctx, time.Duration(fails)*backoffUnit)
		m.release(item)
	default:
		m.record(StatusOK)
		m.notifyError(item, err.Error(), false)
		m.finish(item, Result{Errors: errorList(err)})
	}
}

func (m *Manager) notifyError(item *queued, message string, willRetry bool) {
	if m.notify == nil || item.req.SuppressErrors {
		return
	}
	m.notify(message, willRetry)
}

func (m *Manager) finish(item *queued, res Result) {
	m.mu.Lock()
	m.removeLocked(item)
	m.mu.Unlock()
	item.done <- res
}

func (m *Manager) release(item *queued) {
	m.mu.Lock()
	item.working = false
	m.mu.Unlock()
}

func (m *Manager) fail(item *queued) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.failCount++
	return item.failCount
}

func (m *Manager) abandon(item *queued) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !item.working {
		m.removeLocked(item)
	}
}

func (m *Manager) removeLocked(item *queued) {
	for i, it := range m.queue {
		if it == item {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// record adds s to the window and adapts the concurrency limit.
func (m *Manager) record(s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, s)

	if s == StatusRateLimited {
		m.limit = minWorkers
	} else {
		errCount, okCount := 0, 0
		for _, h := range m.history {
			switch h {
			case StatusError:
				errCount++
			case StatusOK:
				okCount++
			}
		}

		if errCount > errorThreshold {
			m.limit--
			m.history = m.history[:0]
		} else if okCount >= historySize && okCount == len(m.history) {
			m.limit++
			m.history = m.history[:0]
		}
	}

	m.limit = clampWorkers(m.limit)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
}

func clampWorkers(n int) int {
	if n < minWorkers {
		return minWorkers
	}
	if n > maxWorkers {
		return maxWorkers
	}
	return n
}

func errorList(err error) []map[string]any {
	if qe, ok := err.(*QueryError); ok && len(qe.Errors) > 0 {
		return qe.Errors
	}
	return []map[string]any{{"message": err.Error()}}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
