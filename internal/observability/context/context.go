package context

import (
	"context"
	"strings"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	webhookReceiptKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithWebhookReceipt tags the context with the receipt id of a webhook delivery.
func WithWebhookReceipt(ctx context.Context, receiptID string) context.Context {
	receiptID = strings.TrimSpace(receiptID)
	if receiptID == "" {
		return ctx
	}
	return context.WithValue(ctx, webhookReceiptKey, receiptID)
}

func WebhookReceiptFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(webhookReceiptKey).(string)
	return value
}
