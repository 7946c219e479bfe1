package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const eventsChannel = "auction_events"

// EventPublisher pushes accepted bids and lot results onto a pub/sub channel
// for the analytics side of the platform.
type EventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

func (p *EventPublisher) PublishBid(ctx context.Context, auctionID, team string, amount int64) error {
	payload := fmt.Sprintf("%s:bid:%s:%d:%d", auctionID, team, amount, time.Now().Unix())
	return p.client.Publish(ctx, eventsChannel, payload).Err()
}

func (p *EventPublisher) PublishSale(ctx context.Context, auctionID, player, team string, price int64) error {
	payload := fmt.Sprintf("%s:sale:%s:%s:%d:%d", auctionID, player, team, price, time.Now().Unix())
	return p.client.Publish(ctx, eventsChannel, payload).Err()
}
