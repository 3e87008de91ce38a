package notification

import (
	"context"
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY RESULT
// ══════════════════════════════════════════════════════════════════════════════

// DeliveryResult представляет результат доставки уведомления.
type DeliveryResult struct {
	// Success - успешно ли доставлено.
	Success bool

	// Channel - канал, через который было отправлено.
	Channel string

	// DeliveredAt - время доставки.
	DeliveredAt time.Time

	// Error - ошибка доставки (если Success = false).
	Error error

	// Retryable - можно ли повторить отправку.
	Retryable bool
}

// NewSuccessResult создаёт результат успешной доставки.
func NewSuccessResult(channel string) DeliveryResult {
	return DeliveryResult{
		Success:     true,
		Channel:     channel,
		DeliveredAt: time.Now().UTC(),
	}
}

// NewFailureResult создаёт результат неудачной доставки.
func NewFailureResult(channel string, err error, retryable bool) DeliveryResult {
	return DeliveryResult{
		Channel:     channel,
		DeliveredAt: time.Now().UTC(),
		Error:       err,
		Retryable:   retryable,
	}
}

// ErrChannelUnavailable - канал не настроен или временно недоступен.
var ErrChannelUnavailable = errors.New("notification channel unavailable")

// ══════════════════════════════════════════════════════════════════════════════
// CHANNEL
// ══════════════════════════════════════════════════════════════════════════════

// Channel - абстракция над конкретной системой доставки (Slack webhook и т.д.).
type Channel interface {
	// Name возвращает имя канала для логов и метрик.
	Name() string

	// Send отправляет уведомление. ctx используется для отмены и таймаутов.
	Send(ctx context.Context, n *Notification) DeliveryResult
}
