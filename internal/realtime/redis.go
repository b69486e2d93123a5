package realtime

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPattern = "user.*"

// Redis relays events through Redis pub/sub so that every API instance can
// reach the connections it holds. Publish only writes to Redis; Run delivers
// what arrives on the per-user channels to the local sink.
type Redis struct {
	cli  *redis.Client
	sink Sink
	log  zerolog.Logger
}

func NewRedis(url string, sink Sink, log zerolog.Logger) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{cli: redis.NewClient(opt), sink: sink, log: log}, nil
}

func (r *Redis) Publish(ctx context.Context, recipientID uint, event Event, exceptSocketID string) error {
	payload, err := encode(recipientID, event, exceptSocketID)
	if err != nil {
		return err
	}
	return r.cli.Publish(ctx, Channel(recipientID), payload).Err()
}

// Run consumes the per-user channels until ctx is done.
func (r *Redis) Run(ctx context.Context) error {
	ps := r.cli.PSubscribe(ctx, channelPattern)
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	r.log.Info().Str("pattern", channelPattern).Msg("redis relay subscribed")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := deliver(r.sink, []byte(msg.Payload)); err != nil {
				r.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping relayed event")
			}
		}
	}
}

func (r *Redis) Close() error { return r.cli.Close() }
