package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Publisher puts a message on the mail queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// Sender delivers a queued message.
type Sender interface {
	Send(ctx context.Context, msg OTPMessage) error
}

// QueueNotifier hands codes to a queue; a Worker sends them later.
type QueueNotifier struct {
	publisher Publisher
}

// NewQueueNotifier creates a QueueNotifier.
func NewQueueNotifier(publisher Publisher) *QueueNotifier {
	return &QueueNotifier{publisher: publisher}
}

// SendOTP enqueues the code. Success only means the broker accepted it.
func (n *QueueNotifier) SendOTP(ctx context.Context, email, name, code string) error {
	body, err := json.Marshal(OTPMessage{Email: email, Name: name, Code: code})
	if err != nil {
		return fmt.Errorf("encode otp message: %w", err)
	}
	if err := n.publisher.Publish(ctx, body); err != nil {
		return fmt.Errorf("enqueue otp message: %w", err)
	}
	return nil
}

// Worker consumes queued code messages and sends them.
type Worker struct {
	sender Sender
	log    *zap.Logger
}

// NewWorker creates a Worker.
func NewWorker(sender Sender, log *zap.Logger) *Worker {
	return &Worker{sender: sender, log: log}
}

// Handle decodes and sends one message. Undecodable messages are dropped
// since redelivering them can never succeed.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var msg OTPMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.Email == "" || msg.Code == "" {
		w.log.Error("dropping malformed otp message", zap.ByteString("body", body), zap.Error(err))
		return nil
	}
	return w.sender.Send(ctx, msg)
}
