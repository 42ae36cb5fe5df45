package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/markdown"
	"github.com/muratoffalex/emotebot/internal/platform"
	"github.com/muratoffalex/emotebot/internal/queue"
)

type logEnqueuer interface {
	EnqueueLog(ctx context.Context, item queue.LogItem) error
}

// QueueSink hands reports to the log queue so that posting them never runs
// on the command or event worker.
type QueueSink struct {
	queue logEnqueuer
}

func NewQueueSink(q logEnqueuer) *QueueSink {
	return &QueueSink{queue: q}
}

func (s *QueueSink) Report(ctx context.Context, item queue.LogItem) error {
	return s.queue.EnqueueLog(ctx, item)
}

// OpsReporter is the log queue handler. Every report is logged; when an ops
// channel is configured it is also posted there, split into message-sized
// chunks and throttled.
type OpsReporter struct {
	responder platform.Responder
	channelID string
	limiter   *rate.Limiter
	logger    logger.Logger
}

func NewOpsReporter(responder platform.Responder, channelID string, perSecond float64, burst int, log logger.Logger) *OpsReporter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &OpsReporter{
		responder: responder,
		channelID: channelID,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    log.WithComponent("ops_reporter"),
	}
}

func (r *OpsReporter) Handle(ctx context.Context, item queue.LogItem) error {
	entry := r.logger.WithFields(logger.Fields{
		"source": item.Source,
		"at":     item.At,
	})
	switch item.Level {
	case queue.LogLevelWarn:
		entry.Warn(item.Report)
	default:
		entry.Error(item.Report)
	}

	if r.channelID == "" {
		return nil
	}

	for i, chunk := range markdown.Split(item.Report, markdown.MaxMessageLength) {
		if err := r.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("ops channel throttle: %w", err)
		}
		if err := r.responder.Send(ctx, r.channelID, chunk); err != nil {
			return fmt.Errorf("failed to post report chunk %d: %w", i+1, err)
		}
	}
	return nil
}
