package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pasur-go/internal/logging"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "pasur:match:"

func Channel(matchID int64) string {
	return channelPrefix + strconv.FormatInt(matchID, 10)
}

func matchIDFromChannel(channel string) (int64, error) {
	rest, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok {
		return 0, fmt.Errorf("unexpected channel %q", channel)
	}
	return strconv.ParseInt(rest, 10, 64)
}

// NewRedisClient connects using a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// RedisBroadcaster publishes events on a per-match channel. Delivery to
// clients happens in each instance's Relay, this one included.
type RedisBroadcaster struct {
	rdb *redis.Client
}

func NewRedisBroadcaster(rdb *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, Channel(ev.MatchID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Relay forwards events from every match channel to a local broadcaster.
type Relay struct {
	rdb  *redis.Client
	next Broadcaster
}

func NewRelay(rdb *redis.Client, next Broadcaster) *Relay {
	return &Relay{rdb: rdb, next: next}
}

// Run subscribes and forwards until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := r.forward(ctx, msg.Channel, msg.Payload); err != nil {
				logging.L.WithError(err).WithField("channel", msg.Channel).Warn("relay dropped message")
			}
		}
	}
}

func (r *Relay) forward(ctx context.Context, channel, payload string) error {
	matchID, err := matchIDFromChannel(channel)
	if err != nil {
		return err
	}
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	ev.MatchID = matchID
	return r.next.Publish(ctx, ev)
}
