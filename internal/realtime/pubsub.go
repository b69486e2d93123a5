package realtime

import (
	"context"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// PubSub relays events through a Google Cloud Pub/Sub topic. Every instance
// pulls from its own subscription so each one sees every event.
type PubSub struct {
	client  *pubsub.Client
	topic   *pubsub.Topic
	subName string
	sink    Sink
	log     zerolog.Logger
}

func NewPubSub(ctx context.Context, projectID, topicName, credentialsFile string, sink Sink, log zerolog.Logger) (*PubSub, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return newPubSub(client, topicName, topicName+"-"+host, sink, log), nil
}

func newPubSub(client *pubsub.Client, topicName, subName string, sink Sink, log zerolog.Logger) *PubSub {
	return &PubSub{
		client:  client,
		topic:   client.Topic(topicName),
		subName: subName,
		sink:    sink,
		log:     log,
	}
}

func (p *PubSub) Publish(ctx context.Context, recipientID uint, event Event, exceptSocketID string) error {
	payload, err := encode(recipientID, event, exceptSocketID)
	if err != nil {
		return err
	}
	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"channel": Channel(recipientID)},
	})
	_, err = res.Get(ctx)
	return err
}

// Run ensures the instance subscription exists and delivers events until ctx
// is done.
func (p *PubSub) Run(ctx context.Context) error {
	sub, err := p.ensureSubscription(ctx)
	if err != nil {
		return err
	}
	p.log.Info().Str("subscription", p.subName).Msg("pubsub relay listening")
	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := deliver(p.sink, msg.Data); err != nil {
			p.log.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping relayed event")
		}
		msg.Ack()
	})
}

func (p *PubSub) ensureSubscription(ctx context.Context) (*pubsub.Subscription, error) {
	sub := p.client.Subscription(p.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check subscription: %w", err)
	}
	if exists {
		return sub, nil
	}

	topicExists, err := p.topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic: %w", err)
	}
	if !topicExists {
		return nil, fmt.Errorf("topic %s does not exist", p.topic.ID())
	}
	sub, err = p.client.CreateSubscription(ctx, p.subName, pubsub.SubscriptionConfig{
		Topic:            p.topic,
		AckDeadline:      10 * time.Second,
		ExpirationPolicy: 24 * time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	p.log.Info().Str("subscription", p.subName).Msg("created subscription")
	return sub, nil
}

func (p *PubSub) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
