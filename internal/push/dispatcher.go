// Package push turns answered-question events into device push messages.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"religious_services_backend/internal/firebase"
	"religious_services_backend/internal/question"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subscriber hands out the message stream of a topic.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// DeviceTokens resolves and clears the push token registered by a user.
type DeviceTokens interface {
	GetDeviceToken(ctx context.Context, id uuid.UUID) (string, error)
	SetDeviceToken(ctx context.Context, id uuid.UUID, token string) error
}

// Sender delivers a single push message.
type Sender interface {
	Send(ctx context.Context, msg firebase.PushMessage) error
}

// Dispatcher consumes question.answered events and notifies the owner's device.
type Dispatcher struct {
	subscriber Subscriber
	tokens     DeviceTokens
	sender     Sender
	topic      string
	logger     *zap.Logger

	wg sync.WaitGroup
}

func NewDispatcher(subscriber Subscriber, tokens DeviceTokens, sender Sender, topic string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		subscriber: subscriber,
		tokens:     tokens,
		sender:     sender,
		topic:      topic,
		logger:     logger.Named("PushDispatcher"),
	}
}

// Start subscribes to the answered topic and processes messages in the
// background until ctx is cancelled. The subscription exists when Start returns.
func (d *Dispatcher) Start(ctx context.Context) error {
	messages, err := d.subscriber.Subscribe(ctx, d.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", d.topic, err)
	}
	d.logger.Info("Push dispatcher started", zap.String("topic", d.topic))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for msg := range messages {
			d.handle(ctx, msg)
		}
		d.logger.Info("Push dispatcher stopped")
	}()
	return nil
}

// Wait blocks until the consuming goroutine has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// handle always acks: push is best effort and a failed delivery is not retried.
func (d *Dispatcher) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var event question.QuestionAnsweredEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		d.logger.Warn("Discarding malformed event", zap.String("messageID", msg.UUID), zap.Error(err))
		return
	}
	if err := d.notify(ctx, event); err != nil {
		d.logger.Warn("Push delivery failed",
			zap.String("questionID", event.QuestionID.String()),
			zap.String("userID", event.UserID.String()),
			zap.Error(err))
	}
}

func (d *Dispatcher) notify(ctx context.Context, event question.QuestionAnsweredEvent) error {
	token, err := d.tokens.GetDeviceToken(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("lookup device token: %w", err)
	}
	if token == "" {
		return nil
	}

	err = d.sender.Send(ctx, firebase.PushMessage{
		Token: token,
		Title: "Your question was answered",
		Body:  fmt.Sprintf("The rabbi answered your question \"%s\".", event.Title),
		Data: map[string]string{
			"type":       "question_answered",
			"questionId": event.QuestionID.String(),
			"answerId":   event.AnswerID.String(),
		},
	})
	if errors.Is(err, firebase.ErrTokenUnregistered) {
		d.logger.Info("Clearing unregistered device token", zap.String("userID", event.UserID.String()))
		return d.tokens.SetDeviceToken(ctx, event.UserID, "")
	}
	return err
}
