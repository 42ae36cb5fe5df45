package emote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/muratoffalex/emotebot/internal/logger"
)

var ErrUnknownCommand = errors.New("unknown emote command")

type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: 10 * time.Millisecond}
}

type Executor struct {
	receiver Receiver
	policy   RetryPolicy
	logger   logger.Logger
}

func NewExecutor(receiver Receiver, policy RetryPolicy, log logger.Logger) *Executor {
	if policy.Attempts <= 0 {
		policy.Attempts = DefaultRetryPolicy().Attempts
	}
	if policy.Delay < 0 {
		policy.Delay = 0
	}
	return &Executor{
		receiver: receiver,
		policy:   policy,
		logger:   log.WithComponent("emote_executor"),
	}
}

// Execute applies cmd, retrying soft failures up to the policy's attempt
// count with a fixed delay in between. Exhausting all attempts is not an
// error. A hard failure is returned at once without further attempts.
func (e *Executor) Execute(ctx context.Context, cmd Command) error {
	op, err := e.operation(cmd)
	if err != nil {
		return err
	}

	for attempt := 1; attempt <= e.policy.Attempts; attempt++ {
		ok, err := op(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		if ok {
			return nil
		}

		if attempt == e.policy.Attempts {
			break
		}

		e.logger.WithFields(logger.Fields{
			"command": cmd.Name(),
			"attempt": attempt,
		}).Trace("Emote command not applied, retrying")

		if err := sleep(ctx, e.policy.Delay); err != nil {
			return err
		}
	}

	e.logger.WithFields(logger.Fields{
		"command":  cmd.Name(),
		"attempts": e.policy.Attempts,
	}).Debug("Emote command dropped after retries")
	return nil
}

func (e *Executor) operation(cmd Command) (func(context.Context) (bool, error), error) {
	switch c := cmd.(type) {
	case CreateMessage:
		return func(ctx context.Context) (bool, error) { return e.receiver.CreateMessage(ctx, c.Payload) }, nil
	case UpdateMessage:
		return func(ctx context.Context) (bool, error) { return e.receiver.UpdateMessage(ctx, c.Payload) }, nil
	case DeleteMessage:
		return func(ctx context.Context) (bool, error) { return e.receiver.DeleteMessage(ctx, c.Payload) }, nil
	case CreateReaction:
		return func(ctx context.Context) (bool, error) { return e.receiver.CreateReaction(ctx, c.Payload) }, nil
	case DeleteReaction:
		return func(ctx context.Context) (bool, error) { return e.receiver.DeleteReaction(ctx, c.Payload) }, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
