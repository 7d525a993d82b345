package listener

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/dav-92/catfoodbot/internal/scheduler"
	"github.com/dav-92/catfoodbot/pkg/broker"
	"github.com/dav-92/catfoodbot/pkg/logger"
)

const eventCheckRequested = "CheckRequested"

type triggerEvent struct {
	EventType   string `json:"event_type"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// TriggerListener consumes check-request events and kicks the pipeline.
// Requests arriving while a run is in flight join that run.
type TriggerListener struct {
	consumer  *broker.KafkaConsumer
	scheduler *scheduler.Scheduler
	logger    logger.ZapLogger
}

func NewTriggerListener(consumer *broker.KafkaConsumer, s *scheduler.Scheduler, log logger.ZapLogger) *TriggerListener {
	return &TriggerListener{consumer: consumer, scheduler: s, logger: log}
}

// Start blocks reading trigger events until ctx is cancelled. Malformed
// messages are logged and skipped.
func (l *TriggerListener) Start(ctx context.Context) {
	l.logger.Info("trigger listener started")
	for {
		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				l.logger.Info("trigger listener stopping")
				return
			}
			l.logger.Error("trigger read failed", zap.Error(err))
			continue
		}

		var event triggerEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			l.logger.Warn("skipping malformed trigger event", zap.Error(err))
			continue
		}
		if event.EventType != eventCheckRequested {
			l.logger.Debug("ignoring event", zap.String("event_type", event.EventType))
			continue
		}

		l.logger.Info("check requested via broker", zap.String("requested_by", event.RequestedBy))
		if _, err := l.scheduler.TriggerNow(ctx); err != nil {
			l.logger.Error("triggered run failed", zap.Error(err))
		}
	}
}
