package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/fiber"
	"github.com/vango-dev/fibertree/pkg/host"
)

// Snapshot is the exported form of one committed tree.
type Snapshot struct {
	Cycle   uint64        `json:"cycle"`
	Trigger string        `json:"trigger"`
	Taken   time.Time     `json:"taken"`
	Stats   fiber.Stats   `json:"stats"`
	Tree    host.Snapshot `json:"tree"`
	HTML    string        `json:"html"`
}

// Key returns the store key for s. Keys sort by the time the snapshot was
// taken and then by cycle, so a restarted run sorts after earlier ones.
func (s Snapshot) Key() string {
	var nanos int64
	if taken := s.Taken.UTC(); taken.Year() >= 1970 && taken.Year() < 2262 {
		nanos = taken.UnixNano()
	}
	return fmt.Sprintf("cycle-%019d-%010d.json", nanos, s.Cycle)
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithKeep retains only the newest n snapshots. Zero keeps everything.
func WithKeep(n int) ExporterOption {
	return func(e *Exporter) {
		e.keep = n
	}
}

// WithTimeout bounds each store write.
// Default: 10 seconds.
func WithTimeout(d time.Duration) ExporterOption {
	return func(e *Exporter) {
		e.timeout = d
	}
}

// WithQueueSize sets how many snapshots may wait for the worker.
// Default: 16.
func WithQueueSize(n int) ExporterOption {
	return func(e *Exporter) {
		e.queueSize = n
	}
}

// WithLogger sets the exporter logger.
func WithLogger(logger *slog.Logger) ExporterOption {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// WithOnError is called from the worker for every failed export.
func WithOnError(fn func(error)) ExporterOption {
	return func(e *Exporter) {
		e.onError = fn
	}
}

// WithClock overrides the time source used for Taken.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		e.now = now
	}
}

// Exporter writes a Snapshot to a Store after every committed cycle.
type Exporter struct {
	fiber.BaseObserver

	store     Store
	mem       *host.Memory
	keep      int
	timeout   time.Duration
	queueSize int
	onError   func(error)
	now       func() time.Time
	logger    *slog.Logger

	queue    chan Snapshot
	wg       sync.WaitGroup
	once     sync.Once
	exported atomic.Int64
	dropped  atomic.Int64
}

// NewExporter creates an exporter for the tree held by mem. Call Start
// before rendering; until then snapshots are queued.
func NewExporter(store Store, mem *host.Memory, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		store:     store,
		mem:       mem,
		timeout:   10 * time.Second,
		queueSize: 16,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "snapshot")
	e.queue = make(chan Snapshot, e.queueSize)
	return e
}

// Capture copies the current tree. It must run on the engine goroutine.
func (e *Exporter) Capture(c *fiber.Cycle) Snapshot {
	return Snapshot{
		Cycle:   c.ID(),
		Trigger: string(c.Trigger()),
		Taken:   e.now(),
		Stats:   c.Stats(),
		Tree:    e.mem.Root().Snapshot(),
		HTML:    e.mem.HTML(),
	}
}

// CycleFinished implements fiber.Observer. Only committed cycles are
// exported; when the queue is full the snapshot is dropped.
func (e *Exporter) CycleFinished(c *fiber.Cycle) {
	if c.Err() != nil {
		return
	}
	snap := e.Capture(c)
	select {
	case e.queue <- snap:
	default:
		e.dropped.Add(1)
		e.logger.Warn("snapshot queue full, dropping", "cycle", snap.Cycle)
	}
}

// Start launches the worker. It stops when ctx is done or Close is called.
// Snapshots already queued when ctx is done are still written. Writes are
// bounded by the write timeout, not by ctx.
func (e *Exporter) Start(ctx context.Context) {
	writeCtx := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case snap, ok := <-e.queue:
				if !ok {
					return
				}
				e.export(writeCtx, snap)
			case <-ctx.Done():
				e.drain(writeCtx)
				return
			}
		}
	}()
}

// drain writes whatever is queued without waiting for more.
func (e *Exporter) drain(ctx context.Context) {
	for {
		select {
		case snap, ok := <-e.queue:
			if !ok {
				return
			}
			e.export(ctx, snap)
		default:
			return
		}
	}
}

// Close stops accepting snapshots and waits for the worker to write the
// ones queued so far. No cycle may finish after Close.
func (e *Exporter) Close() {
	e.once.Do(func() {
		close(e.queue)
	})
	e.wg.Wait()
}

// Exported returns how many snapshots were written.
func (e *Exporter) Exported() int64 {
	return e.exported.Load()
}

// Dropped returns how many snapshots were dropped because the queue was full.
func (e *Exporter) Dropped() int64 {
	return e.dropped.Load()
}

func (e *Exporter) export(ctx context.Context, snap Snapshot) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := Write(ctx, e.store, snap, e.keep); err != nil {
		e.logger.Error("snapshot export failed", "cycle", snap.Cycle, "error", err)
		if e.onError != nil {
			e.onError(err)
		}
		return
	}
	e.exported.Add(1)
	e.logger.Debug("snapshot exported", "cycle", snap.Cycle, "key", snap.Key())
}

// Write stores snap and prunes all but the newest keep snapshots.
// Failures are E150 errors.
func Write(ctx context.Context, store Store, snap Snapshot, keep int) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, snap.Key(), data); err != nil {
		return errors.New("E150").Wrap(err).WithDetailf("writing %s", snap.Key())
	}
	if keep <= 0 {
		return nil
	}

	keys, err := store.List(ctx)
	if err != nil {
		return errors.New("E150").Wrap(err).WithDetail("listing snapshots")
	}
	var cycles []string
	for _, k := range keys {
		if strings.HasPrefix(k, "cycle-") {
			cycles = append(cycles, k)
		}
	}
	for len(cycles) > keep {
		if err := store.Delete(ctx, cycles[0]); err != nil {
			return errors.New("E150").Wrap(err).WithDetailf("pruning %s", cycles[0])
		}
		cycles = cycles[1:]
	}
	return nil
}

// Encode returns the stored form of snap.
func Encode(snap Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, errors.New("E150").Wrap(err).WithDetail("encoding snapshot")
	}
	return data, nil
}

// Read loads a snapshot from store.
func Read(ctx context.Context, store Store, key string) (Snapshot, error) {
	var snap Snapshot
	data, err := store.Get(ctx, key)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, errors.New("E150").Wrap(err).WithDetailf("decoding %s", key)
	}
	return snap, nil
}

// Latest loads the newest snapshot in store.
func Latest(ctx context.Context, store Store) (Snapshot, error) {
	keys, err := store.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	for i := len(keys) - 1; i >= 0; i-- {
		if strings.HasPrefix(keys[i], "cycle-") {
			return Read(ctx, store, keys[i])
		}
	}
	return Snapshot{}, ErrNotFound
}
