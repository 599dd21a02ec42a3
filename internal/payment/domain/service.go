package domain

import (
	"context"
	"net/http"
)

// Gateway is the outbound side of the relay.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (InitializeResult, error)
	Verify(ctx context.Context, reference string) (VerifyResult, error)
}

// WebhookVerifier authenticates a webhook delivery before it is parsed.
type WebhookVerifier interface {
	VerifyWebhook(ctx context.Context, payload []byte, headers http.Header) error
}

// ReferenceStore is the set of references already confirmed as paid.
// MarkProcessed is an atomic insert-if-absent and reports whether this call
// inserted the reference. Entries are never removed.
type ReferenceStore interface {
	Contains(reference string) bool
	MarkProcessed(reference string) bool
	Len() int
}

type Service interface {
	Initialize(ctx context.Context, req InitializeRequest) (InitializeResult, error)
	Reconcile(ctx context.Context, reference string) (Outcome, error)
	RecordWebhookEvent(ctx context.Context, eventType, reference string) (WebhookOutcome, error)
	ResolveCallback(ctx context.Context, req CallbackRequest) (CallbackResult, error)
	ProcessedCount() int
}
