package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/messaging"
)

// BrokerPublisher sends changes through a message broker so that every instance sees them.
// When the broker rejects a change it is still delivered to the local hub.
type BrokerPublisher struct {
	broker  messaging.Broker
	channel string
	origin  string
	local   *Hub
	logger  *logger.Logger
}

var _ Publisher = (*BrokerPublisher)(nil)

func NewBrokerPublisher(broker messaging.Broker, channel, origin string, local *Hub, log *logger.Logger) *BrokerPublisher {
	return &BrokerPublisher{
		broker:  broker,
		channel: channel,
		origin:  origin,
		local:   local,
		logger:  log,
	}
}

func (p *BrokerPublisher) Publish(ctx context.Context, change Change) error {
	change.Origin = p.origin
	if err := p.broker.Publish(ctx, p.channel, change); err != nil {
		p.logger.Error(err, "failed to publish change, delivering locally only", "table", change.Table)
		_ = p.local.Publish(ctx, change)
		return fmt.Errorf("failed to publish %s change: %w", change.Table, err)
	}
	return nil
}

// Relay feeds changes received from the broker into the local hub.
type Relay struct {
	broker  messaging.Broker
	channel string
	hub     *Hub
	logger  *logger.Logger
}

func NewRelay(broker messaging.Broker, channel string, hub *Hub, log *logger.Logger) *Relay {
	return &Relay{broker: broker, channel: channel, hub: hub, logger: log}
}

// Start consumes until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	return messaging.Consume(ctx, r.broker, r.channel, func(payload []byte) error {
		var change Change
		if err := json.Unmarshal(payload, &change); err != nil {
			return fmt.Errorf("failed to decode change: %w", err)
		}
		if !change.Table.Valid() {
			return fmt.Errorf("unknown table %q", change.Table)
		}
		return r.hub.Publish(ctx, change)
	}, func(err error) {
		r.logger.Error(err, "dropping realtime message", "channel", r.channel)
	})
}
