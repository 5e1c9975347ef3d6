package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes codes to the log instead of sending them. Meant for
// local development only.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// SendOTP logs the code.
func (n *LogNotifier) SendOTP(_ context.Context, email, name, code string) error {
	n.log.Info("otp issued",
		zap.String("email", email),
		zap.String("name", name),
		zap.String("code", code),
	)
	return nil
}
