package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"ai-research-be/internal/constant"
	"ai-research-be/internal/dto"
	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/pkg/mailer"
	"ai-research-be/pkg/events"
	pktNats "ai-research-be/pkg/nats"
)

// JobStreamDelivery pushes job updates to connected clients. Implemented by
// the WebSocket hub.
type JobStreamDelivery interface {
	BroadcastJob(jobId string, payload []byte)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService fans job lifecycle events out of the watermill topic:
// every event reaches the WebSocket hub; lifecycle transitions are mirrored
// to NATS when configured; terminal research runs trigger an email when the
// submitter asked for one.
type consumerService struct {
	pubSub        *gochannel.GoChannel
	topicName     string
	delivery      JobStreamDelivery
	natsPublisher *pktNats.Publisher
	emailService  mailer.IEmailService
	logger        logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	delivery JobStreamDelivery,
	natsPublisher *pktNats.Publisher,
	emailService mailer.IEmailService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:        pubSub,
		topicName:     topicName,
		delivery:      delivery,
		natsPublisher: natsPublisher,
		emailService:  emailService,
		logger:        log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event dto.JobEventMessage
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal job event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}
	if event.Snapshot == nil {
		cs.logger.Warn("ConsumerService", "Job event without snapshot", map[string]interface{}{"event": event.Event})
		msg.Ack()
		return
	}

	if cs.delivery != nil {
		cs.delivery.BroadcastJob(event.JobId, msg.Payload)
	}

	// Progress ticks stay local; only lifecycle transitions hit the bus.
	if event.Event != constant.EventJobProgress {
		cs.mirrorToNats(ctx, &event)
	}

	if event.Event == constant.EventJobFinished {
		cs.notify(&event)
	}

	msg.Ack()
}

func (cs *consumerService) mirrorToNats(ctx context.Context, event *dto.JobEventMessage) {
	if cs.natsPublisher == nil {
		return
	}

	snap := event.Snapshot
	evt := events.New(event.Event, map[string]interface{}{
		"job_id":  event.JobId,
		"type":    string(snap.Type),
		"title":   snap.Title,
		"status":  string(snap.Status),
		"stage":   string(snap.Stage),
		"message": snap.Message,
	})
	if err := cs.natsPublisher.Publish(ctx, evt); err != nil {
		cs.logger.Warn("ConsumerService", "Failed to mirror event to NATS", map[string]interface{}{"event": event.Event, "error": err.Error()})
	}
}

func (cs *consumerService) notify(event *dto.JobEventMessage) {
	if cs.emailService == nil || event.NotifyEmail == "" {
		return
	}

	snap := event.Snapshot
	switch snap.Status {
	case entity.JobStatusDone:
		if snap.Type != entity.JobTypeResearch {
			return
		}
		if err := cs.emailService.SendReportReady(event.NotifyEmail, snap.Title, snap.JobId, snap.HistoryCid); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to send report notice", map[string]interface{}{"job_id": snap.JobId, "error": err.Error()})
		}
	case entity.JobStatusError:
		if err := cs.emailService.SendJobFailed(event.NotifyEmail, snap.Title, snap.JobId, snap.Error); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to send failure notice", map[string]interface{}{"job_id": snap.JobId, "error": err.Error()})
		}
	}
}
