package solana

import "context"

// SignatureSubscriber defines the Solana WebSocket subscription surface used for confirmations.
type SignatureSubscriber interface {
	// SubscribeSignature subscribes to the status of one signature.
	// The channel receives at most one notification; cancel releases the subscription.
	SubscribeSignature(ctx context.Context, signature string) (<-chan SignatureNotification, func(), error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification represents a signatureNotification message.
type SignatureNotification struct {
	Signature string
	Slot      int64
	Err       interface{} // nil when the transaction succeeded
}
