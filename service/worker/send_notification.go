package worker

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Payload struct for send notification job
type NotificationPayload struct {
	SourceID uint   `json:"source_id"`
	DestID   uint   `json:"dest_id"`
	Content  string `json:"content"`
}

// Send notification key
const SendNotification = "send-notification"

// Method to distribute send notification task
func (distributor *RedisTaskDistributor) DistributeTaskSendNotification(
	ctx context.Context,
	payload NotificationPayload,
	opts ...asynq.Option,
) (err error) {
	// Marshal payload
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// Create new task
	task := asynq.NewTask(SendNotification, data, opts...)

	// Send task to Redis queue
	info, err := distributor.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	// Log task info
	distributor.logger.Info("Task info", "task_name", SendNotification, "queue", info.Queue, "max_retry", info.MaxRetry)

	return nil
}

// Method to process send notification task
func (processor *RedisTaskProcessor) ProcessTaskSendNotification(ctx context.Context, task *asynq.Task) (err error) {
	processor.logger.Info("Start processing task", "task_name", SendNotification)

	// Unmarshal payload
	var payload NotificationPayload
	if err = json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	// Insert notification into database and publish it through the hub
	if err = processor.publishNotification(payload.SourceID, payload.DestID, payload.Content); err != nil {
		return err
	}

	processor.logger.Info("Task completed successfully", "task_name", SendNotification)

	return nil
}
