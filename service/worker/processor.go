package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/skillswap/skillswap/db"
	"github.com/skillswap/skillswap/service/mail"
	"github.com/skillswap/skillswap/service/notify"
	"github.com/skillswap/skillswap/service/pubsub"
)

// Task processor interface
type TaskProcessor interface {
	Start() error
	ProcessTaskSendWelcomeEmail(ctx context.Context, task *asynq.Task) (err error)
	ProcessTaskSendNotification(ctx context.Context, task *asynq.Task) (err error)
	ProcessTaskDeliverMessage(ctx context.Context, task *asynq.Task) (err error)
}

// Redis task processor
type RedisTaskProcessor struct {
	server      *asynq.Server
	queries     *db.Queries
	mailService *mail.EmailService
	notifyHub   *notify.Hub[db.Notification]
	hub         *pubsub.Hub
	logger      *slog.Logger
}

// Constructor method for Redis task processor
func NewRedisTaskProcessor(
	redisOpts asynq.RedisClientOpt,
	queries *db.Queries,
	mailService *mail.EmailService,
	notifyHub *notify.Hub[db.Notification],
	hub *pubsub.Hub,
	logger *slog.Logger,
) TaskProcessor {
	return &RedisTaskProcessor{
		server:      asynq.NewServer(redisOpts, asynq.Config{}),
		queries:     queries,
		mailService: mailService,
		notifyHub:   notifyHub,
		hub:         hub,
		logger:      logger,
	}
}

// Method to start the worker server
func (processor *RedisTaskProcessor) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(SendWelcomeEmail, processor.ProcessTaskSendWelcomeEmail)
	mux.HandleFunc(SendNotification, processor.ProcessTaskSendNotification)
	mux.HandleFunc(DeliverMessage, processor.ProcessTaskDeliverMessage)

	return processor.server.Start(mux)
}

// Helper to persist a notification and push it to SSE subscribers. Shared by
// the notification task and the offline-recipient branch of message delivery.
func (processor *RedisTaskProcessor) publishNotification(sourceID, destID uint, content string) error {
	var notification = db.Notification{
		SourceID: sourceID,
		DestID:   destID,
		Content:  content,
		Status:   db.Unread,
	}
	result := processor.queries.DB.Create(&notification)
	if result.Error != nil {
		return result.Error
	}

	processor.notifyHub.Publish(notification)
	return nil
}
