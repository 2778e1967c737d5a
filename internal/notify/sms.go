package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/saffron-restaurant/api/internal/domain/order"
)

// LogSMSSender is the default CodeSender used when no SMS provider is
// configured. It logs the code instead of sending it, which is what the
// development and staging environments run with.
type LogSMSSender struct {
	lg *zap.Logger
}

var _ order.CodeSender = (*LogSMSSender)(nil)

// NewLogSMSSender creates a LogSMSSender.
func NewLogSMSSender(lg *zap.Logger) *LogSMSSender {
	return &LogSMSSender{lg: lg}
}

// SendCode logs the verification code instead of delivering it.
func (s *LogSMSSender) SendCode(_ context.Context, phone, code string) error {
	s.lg.Info("sms code issued (test mode, not sent)",
		zap.String("phone", phone),
		zap.String("code", code),
	)
	return nil
}
