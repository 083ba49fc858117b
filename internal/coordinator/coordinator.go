package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/stacklok/layermap-scraper/internal/otel"
	"github.com/stacklok/layermap-scraper/internal/scraper"
	"github.com/stacklok/layermap-scraper/internal/target"
	"github.com/stacklok/layermap-scraper/internal/telemetry"
)

const (
	// DefaultInterval is the pause between two reconcile cycles
	DefaultInterval = 10 * time.Second
	// DefaultRetryCooldown is the pause after the desired set could not be resolved
	DefaultRetryCooldown = 10 * time.Second
)

// Coordinator keeps the set of running poll tasks equal to the desired set
type Coordinator interface {
	// Start looks up the pageserver identity and runs the reconcile loop.
	// Blocks until the context is cancelled or Stop is called; the only error
	// is a failed identity lookup at startup.
	Start(ctx context.Context) error

	// Stop ends the reconcile loop, stops every task and waits for them to exit
	Stop() error

	// ActiveTargets returns the keys that currently have a registered task, sorted
	ActiveTargets() []target.Key

	// Ready reports whether at least one reconcile cycle has completed
	Ready() bool
}

// Identifier returns the node id of the pageserver being scraped
type Identifier interface {
	PageserverID(ctx context.Context) (string, error)
}

// DesiredSetResolver expands work specifications into timeline keys
type DesiredSetResolver interface {
	Resolve(ctx context.Context, specs []string) (target.Set, error)
}

// TaskRunner runs the poll loop of one key until stop is closed, the
// context is done, or a cycle fails
type TaskRunner interface {
	Run(ctx context.Context, key target.Key, stop <-chan struct{}) error
}

// RunnerFactory builds the TaskRunner once the pageserver identity
// ("<environment>-<node id>") is known
type RunnerFactory func(pageserverID string) (TaskRunner, error)

type defaultCoordinator struct {
	ident       Identifier
	resolver    DesiredSetResolver
	newRunner   RunnerFactory
	specs       []string
	environment string

	interval      time.Duration
	retryCooldown time.Duration
	clock         clock.Clock
	metrics       *telemetry.ScrapeMetrics
	tracer        trace.Tracer

	registry *registry
	tasks    sync.WaitGroup
	ready    atomic.Bool

	// Lifecycle management
	mu         sync.Mutex
	started    bool
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithInterval sets the pause between reconcile cycles
func WithInterval(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.interval = d
	}
}

// WithRetryCooldown sets the pause after a failed resolution
func WithRetryCooldown(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.retryCooldown = d
	}
}

// WithClock replaces the wall clock, for tests
func WithClock(cl clock.Clock) Option {
	return func(c *defaultCoordinator) {
		c.clock = cl
	}
}

// WithMetrics sets the scrape metrics for the coordinator
func WithMetrics(m *telemetry.ScrapeMetrics) Option {
	return func(c *defaultCoordinator) {
		c.metrics = m
	}
}

// WithTracer wraps each reconcile cycle in a span
func WithTracer(t trace.Tracer) Option {
	return func(c *defaultCoordinator) {
		c.tracer = t
	}
}

// New creates a coordinator for the given specifications
func New(
	ident Identifier,
	resolver DesiredSetResolver,
	newRunner RunnerFactory,
	specs []string,
	environment string,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		ident:         ident,
		resolver:      resolver,
		newRunner:     newRunner,
		specs:         specs,
		environment:   environment,
		interval:      DefaultInterval,
		retryCooldown: DefaultRetryCooldown,
		clock:         clock.RealClock{},
		registry:      newRegistry(),
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins reconciliation
func (c *defaultCoordinator) Start(ctx context.Context) error {
	coordCtx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		close(c.done)
		slog.Info("Coordinator shut down")
	}()

	id, err := c.ident.PageserverID(coordCtx)
	if err != nil {
		return fmt.Errorf("failed to look up pageserver identity: %w", err)
	}
	pageserverID := c.environment + "-" + id

	runner, err := c.newRunner(pageserverID)
	if err != nil {
		return fmt.Errorf("failed to create task runner: %w", err)
	}

	slog.Info("Starting coordinator",
		"pageserver_id", pageserverID,
		"specs", c.specs,
		"interval", c.interval,
		"retry_cooldown", c.retryCooldown,
	)

	for {
		wait := c.interval
		if err := c.reconcile(coordCtx, runner); err != nil && coordCtx.Err() == nil {
			slog.Error("Failed to resolve desired timelines, keeping current tasks",
				"error", err,
				"retry_in", c.retryCooldown,
			)
			c.metrics.RecordResolutionFailure(coordCtx)
			wait = c.retryCooldown
		}

		select {
		case <-coordCtx.Done():
			slog.Info("Coordinator stopping", "active_tasks", len(c.registry.keys()))
			c.shutdownTasks()
			return nil
		case <-c.clock.After(wait):
		}
	}
}

// begin records the cancel function so Stop can end the loop
func (c *defaultCoordinator) begin(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil, errors.New("coordinator already started")
	}
	c.started = true

	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	return coordCtx, nil
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping coordinator")
		cancel()
		<-c.done
	}
	return nil
}

// ActiveTargets returns the keys with a registered task
func (c *defaultCoordinator) ActiveTargets() []target.Key {
	return c.registry.keys()
}

// Ready reports whether the first reconcile has completed
func (c *defaultCoordinator) Ready() bool {
	return c.ready.Load()
}

// reconcile runs one cycle. Resolution happens before the registry lock is
// taken; on failure the registry is left untouched. Tasks inherit ctx, not
// the reconcile span.
func (c *defaultCoordinator) reconcile(ctx context.Context, runner TaskRunner) error {
	spanCtx, span := otel.StartSpan(ctx, c.tracer, "coordinator.Reconcile")
	defer span.End()

	desired, err := c.resolver.Resolve(spanCtx, c.specs)
	if err != nil {
		otel.RecordError(span, err)
		return err
	}

	d := c.registry.reconcile(desired, func(h *taskHandle) {
		c.spawn(ctx, runner, h)
	})
	c.ready.Store(true)

	span.SetAttributes(
		otel.AttrTargetCount.Int(desired.Len()),
		otel.AttrToStart.Int(len(d.started)),
		otel.AttrToStop.Int(len(d.stopped)),
	)

	if len(d.started) > 0 || len(d.stopped) > 0 {
		slog.Info("Reconciled poll tasks",
			"desired", desired.Len(),
			"started", len(d.started),
			"stopping", len(d.stopped),
		)
	} else {
		slog.Debug("Poll tasks up to date", "desired", desired.Len())
	}
	for _, k := range d.stopped {
		slog.Info("Requested poll task stop", "tenant_id", k.TenantID, "timeline_id", k.TimelineID)
	}
	return nil
}

// spawn launches the goroutine for h. Called with the registry lock held.
func (c *defaultCoordinator) spawn(ctx context.Context, runner TaskRunner, h *taskHandle) {
	c.tasks.Add(1)
	c.metrics.TaskStarted(ctx)
	go c.runTask(ctx, runner, h)
}

func (c *defaultCoordinator) runTask(ctx context.Context, runner TaskRunner, h *taskHandle) {
	defer c.tasks.Done()
	defer func() {
		c.registry.remove(h)
		close(h.done)
	}()

	err := runner.Run(ctx, h.key, h.stop)

	reason := terminationReason(ctx, err)
	c.metrics.RecordTaskTermination(context.WithoutCancel(ctx), reason)
	if reason != telemetry.TerminationStopped && reason != telemetry.TerminationShutdown {
		slog.Warn("Poll task terminated, it will be restarted if still desired",
			"tenant_id", h.key.TenantID,
			"timeline_id", h.key.TimelineID,
			"reason", reason,
			"error", err,
		)
	}
}

// shutdownTasks raises stop on every task and waits for all of them to exit
func (c *defaultCoordinator) shutdownTasks() {
	c.registry.stopAll()
	c.tasks.Wait()
}

func terminationReason(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return telemetry.TerminationShutdown
	}
	if err == nil {
		return telemetry.TerminationStopped
	}
	var taskErr *scraper.TaskError
	if errors.As(err, &taskErr) && taskErr.Kind == scraper.KindWrite {
		return telemetry.TerminationWriteError
	}
	return telemetry.TerminationFetchError
}
