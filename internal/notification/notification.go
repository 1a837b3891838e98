package notification

import (
	"context"
	"log/slog"
	"sync"
)

const (
	// KindPhoneOTP carries a one-time code for phone verification.
	KindPhoneOTP = "phone_otp"
	// KindRegistrationComplete welcomes a newly registered identity.
	KindRegistrationComplete = "registration_complete"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
// Bodies may carry codes, so they are only emitted at debug level.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", Mask(message.Destination))
	n.logger.DebugContext(ctx, "notification body", "kind", message.Kind, "body", message.Body)
	return nil
}

// MemoryNotifier records messages in process.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Message
}

// Send records message.
func (n *MemoryNotifier) Send(_ context.Context, message Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, message)
	return nil
}

// Last returns the most recent message sent to destination.
func (n *MemoryNotifier) Last(destination string) (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Destination == destination {
			return n.sent[i], true
		}
	}
	return Message{}, false
}

// Mask hides all but the last three characters of a destination.
func Mask(destination string) string {
	if len(destination) <= 3 {
		return "***"
	}
	masked := make([]byte, len(destination))
	for i := range destination {
		if i < len(destination)-3 {
			masked[i] = '*'
		} else {
			masked[i] = destination[i]
		}
	}
	return string(masked)
}
