package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/skillswap/skillswap/db"
	"github.com/skillswap/skillswap/service/pubsub"
)

// Payload struct for the message delivery job
type DeliverMessagePayload struct {
	ConversationID uint `json:"conversation_id"`
	MessageID      uint `json:"message_id"`
}

const DeliverMessage = "deliver-message"

func (distributor *RedisTaskDistributor) DistributeTaskDeliverMessage(
	ctx context.Context,
	payload DeliverMessagePayload,
	opts ...asynq.Option,
) (err error) {
	// Marshal payload
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// Create new task
	task := asynq.NewTask(DeliverMessage, data, opts...)

	// Send task to Redis queue
	info, err := distributor.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	// Log task info
	distributor.logger.Info("Task info", "task_name", DeliverMessage, "queue", info.Queue, "max_retry", info.MaxRetry)

	return nil
}

// Push the conversation's full ordered message history to every live
// subscriber of the conversation. An offline recipient gets a notification
// instead, so the message is not silently dropped.
func (processor *RedisTaskProcessor) ProcessTaskDeliverMessage(ctx context.Context, task *asynq.Task) (err error) {
	processor.logger.Info("Start processing task", "task_name", DeliverMessage)

	// Unmarshal payload
	var payload DeliverMessagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	// Fetch the message being delivered
	var message db.Message
	result := processor.queries.DB.First(&message, payload.MessageID)
	if result.Error != nil {
		return result.Error
	}

	// Load the full message history, ascending by server-assigned timestamp
	var messages []db.Message
	result = processor.queries.DB.
		Where("conversation_id = ?", payload.ConversationID).
		Order("created_at asc, id asc").
		Find(&messages)
	if result.Error != nil {
		return result.Error
	}

	event := pubsub.MessageListEvent{
		Type:           pubsub.EventMessageList,
		ConversationID: payload.ConversationID,
		Messages:       messages,
	}

	var success int
	subscribers := processor.hub.Subscribers(payload.ConversationID)
	for _, client := range subscribers {
		if err := client.WriteMessage(event); err != nil {
			processor.logger.Error(fmt.Sprintf("Failed to push conversation %d to client %d", payload.ConversationID, client.AccountID), "error", err)
			continue
		}
		success++
	}
	processor.logger.Info(fmt.Sprintf("%d / %d subscribers updated", success, len(subscribers)), "conversation_id", payload.ConversationID)

	// Recipient not watching any conversation right now: leave a notification
	if !processor.hub.Connected(message.RecipientID) {
		var sender db.Account
		result = processor.queries.DB.First(&sender, message.SenderID)
		if result.Error != nil {
			return result.Error
		}

		if err := processor.publishNotification(
			message.SenderID,
			message.RecipientID,
			fmt.Sprintf("%s sent you a message", sender.Username),
		); err != nil {
			return err
		}
	}

	processor.logger.Info("Task completed successfully", "task_name", DeliverMessage)

	return nil
}
