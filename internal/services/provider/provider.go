// Package provider holds the telephony provider enqueue boundary. Only the
// request/response contract matters to the rest of the system; adapters keep
// all provider-specific wire details to themselves and hand back payloads for
// verbatim capture on the phone call record.
package provider

import (
	"context"

	"github.com/opencallout/callout-services-backend/internal/models"
)

// EnqueueRequest asks the provider to place one outbound call.
type EnqueueRequest struct {
	To       string          `json:"to"`
	Metadata models.Metadata `json:"metadata,omitempty"`
}

// EnqueueOutcome is the recorded result of one enqueue round trip. Provider
// rejections and transport failures are outcomes, not errors: they come back
// with Queued=false and the error payload in Response, so the dispatcher can
// persist them as call state.
type EnqueueOutcome struct {
	Queued          bool
	RemoteCallID    string
	RemoteStatus    string
	RemoteDirection string
	ErrorMessage    string

	// RequestParams is what was sent, captured for the call record.
	RequestParams models.Metadata
	// Response is the provider's response payload, or the error payload on
	// rejection/transport failure.
	Response models.Metadata
}

// Client is the provider enqueue boundary consumed by the dispatcher.
type Client interface {
	// Enqueue places the call. The context carries the caller's timeout;
	// on expiry the outcome records a transport failure. A non-nil error
	// means the round trip could not even be attempted.
	Enqueue(ctx context.Context, req EnqueueRequest) (EnqueueOutcome, error)
}
