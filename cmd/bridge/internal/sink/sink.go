// Package sink abstracts the pub/sub endpoint the bridge publishes snapshots
// to. Delivery is best-effort: the sink does not buffer, and messages
// published while disconnected are lost.
package sink

import "context"

// Sink is the publish side of the pipeline. Publish returns the number of
// subscribers the payload was delivered to; zero subscribers is not an error.
// Reconnect is an explicit operation for the supervisor to invoke off health
// checks, it is never triggered from the publish path.
type Sink interface {
	Publish(ctx context.Context, channel, payload string) (int64, error)
	Ping(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Close() error
}
