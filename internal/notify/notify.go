// Package notify delivers one-time passcodes to users.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/Skotchmaster/content_auth/internal/logging"
)

// Sink delivers code to the owner of email. An error means the code may
// not have reached the user.
type Sink interface {
	SendOTP(ctx context.Context, email, code string) error
}

const EventOTPIssued = "otp_issued"

type OTPIssued struct {
	Type     string    `json:"type"`
	Email    string    `json:"email"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}

type publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// KafkaSink hands codes to the mail worker through a topic.
type KafkaSink struct {
	Producer publisher
	Topic    string
}

func NewKafkaSink(p publisher, topic string) *KafkaSink {
	return &KafkaSink{Producer: p, Topic: topic}
}

func (s *KafkaSink) SendOTP(ctx context.Context, email, code string) error {
	ev := OTPIssued{
		Type:     EventOTPIssued,
		Email:    email,
		Code:     code,
		IssuedAt: time.Now().UTC(),
	}
	return s.Producer.PublishEvent(ctx, s.Topic, email, ev)
}

// LogSink prints codes to the log. Meant for local development only.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) SendOTP(ctx context.Context, email, code string) error {
	l := s.Logger
	if l == nil {
		l = logging.FromContext(ctx)
	}
	l.Info("otp_issued", "email", email, "code", code)
	return nil
}
