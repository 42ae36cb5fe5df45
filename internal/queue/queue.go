package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/muratoffalex/emotebot/internal/commands"
	"github.com/muratoffalex/emotebot/internal/events"
	"github.com/muratoffalex/emotebot/internal/logger"
)

var (
	ErrAlreadyStarted = errors.New("dispatcher already started")
	ErrUnknownCommand = errors.New("unknown command")
)

// Dispatcher owns the command, event and log queues and runs exactly one
// worker per queue. Items are handled one at a time in FIFO order within a
// queue; the three queues progress independently.
type Dispatcher struct {
	commands *Channel[commands.Request]
	events   *Channel[events.Event]
	logs     *Channel[LogItem]
	registry *Registry
	logger   logger.Logger

	startOnce sync.Once
	wg        sync.WaitGroup
}

func New(cfg Config, registry *Registry, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		commands: NewChannel[commands.Request](cfg.CommandCapacity),
		events:   NewChannel[events.Event](cfg.EventCapacity),
		logs:     NewChannel[LogItem](cfg.LogCapacity),
		registry: registry,
		logger:   log.WithComponent("dispatcher"),
	}
}

// Start launches the workers and returns immediately. Cancelling ctx stops
// the workers from taking new items; an item already taken runs to
// completion with a context that is not cancelled. Items still queued at
// that point are dropped.
func (d *Dispatcher) Start(ctx context.Context) error {
	err := ErrAlreadyStarted
	d.startOnce.Do(func() {
		err = nil

		d.logger.WithFields(logger.Fields{
			"command_capacity": d.commands.Cap(),
			"event_capacity":   d.events.Cap(),
			"log_capacity":     d.logs.Cap(),
			"commands":         d.registry.Commands(),
		}).Info("Starting dispatcher")

		d.wg.Add(3)
		go work(ctx, d, KindCommand, d.commands, d.handleCommand)
		go work(ctx, d, KindEvent, d.events, d.handleEvent)
		go work(ctx, d, KindLog, d.logs, d.handleLog)

		go func() {
			<-ctx.Done()
			d.commands.Close()
			d.events.Close()
			d.logs.Close()
		}()
	})
	return err
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) EnqueueCommand(ctx context.Context, req commands.Request) error {
	return d.commands.Enqueue(ctx, req)
}

func (d *Dispatcher) EnqueueEvent(ctx context.Context, ev events.Event) error {
	return d.events.Enqueue(ctx, ev)
}

func (d *Dispatcher) EnqueueLog(ctx context.Context, item LogItem) error {
	if item.At.IsZero() {
		item.At = time.Now()
	}
	return d.logs.Enqueue(ctx, item)
}

func (d *Dispatcher) Len(kind Kind) int {
	switch kind {
	case KindCommand:
		return d.commands.Len()
	case KindEvent:
		return d.events.Len()
	case KindLog:
		return d.logs.Len()
	default:
		return 0
	}
}

func (d *Dispatcher) Cap(kind Kind) int {
	switch kind {
	case KindCommand:
		return d.commands.Cap()
	case KindEvent:
		return d.events.Cap()
	case KindLog:
		return d.logs.Cap()
	default:
		return 0
	}
}

func work[T any](ctx context.Context, d *Dispatcher, kind Kind, ch *Channel[T], handle func(context.Context, T) error) {
	log := d.logger.WithField("queue", kind)
	log.Debug("Worker started")
	defer func() {
		log.Debug("Worker stopped")
		d.wg.Done()
	}()

	for {
		item, err := ch.Dequeue(ctx)
		if err != nil {
			return
		}

		start := time.Now()
		err = Recover(func() error {
			return handle(context.WithoutCancel(ctx), item)
		})
		if err != nil {
			entry := log.WithError(err).WithField("duration", time.Since(start).String())
			var panicErr *PanicError
			if errors.As(err, &panicErr) {
				entry = entry.WithField("stack", string(panicErr.Stack))
			}
			entry.Error("Handler failed")
		}
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, req commands.Request) error {
	handler, ok := d.registry.ResolveCommand(req.Name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, req.Name)
	}

	d.logger.WithFields(logger.Fields{
		"command":    req.Name,
		"request_id": req.ID.String(),
		"guild_id":   req.Message.GuildID,
		"channel_id": req.Message.ChannelID,
		"user_id":    req.Message.AuthorID,
	}).Debug("Handling command")

	return handler(ctx, req)
}

// handleEvent runs every handler registered for the event kind. A failing
// handler does not prevent the remaining ones from running.
func (d *Dispatcher) handleEvent(ctx context.Context, ev events.Event) error {
	var errs []error
	for _, h := range d.registry.eventHandlers(ev.Kind()) {
		err := Recover(func() error { return h.handler(ctx, ev) })
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) handleLog(ctx context.Context, item LogItem) error {
	handler := d.registry.logHandler()
	if handler == nil {
		d.logger.WithFields(logger.Fields{
			"source": item.Source,
			"level":  item.Level,
		}).Warn("No log handler registered, dropping report")
		return nil
	}
	return handler(ctx, item)
}

// Recover runs fn and converts a panic into a *PanicError.
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
