// Package pubsub publishes period events to a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"google.golang.org/api/option"

	"github.com/JakeFAU/paper-harvester/internal/notify"
)

// Config names the topic.
type Config struct {
	Project string `mapstructure:"project"`
	Topic   string `mapstructure:"topic"`
}

// Publisher wraps a Pub/Sub topic.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	owned  bool
}

// New wraps an existing client. The caller keeps ownership of client.
func New(client *pubsub.Client, topicID string) *Publisher {
	return &Publisher{client: client, topic: client.Topic(topicID)}
}

// Open dials Pub/Sub and verifies the topic exists.
func Open(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Publisher, error) {
	if cfg.Project == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("pubsub project and topic are required")
	}
	client, err := pubsub.NewClient(ctx, cfg.Project, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	p := New(client, cfg.Topic)
	p.owned = true
	ok, err := p.topic.Exists(ctx)
	if err != nil || !ok {
		_ = p.Close()
		if err == nil {
			err = fmt.Errorf("topic does not exist")
		}
		return nil, fmt.Errorf("failed to check pubsub topic %q: %w", cfg.Topic, err)
	}
	return p, nil
}

// Publish marshals the event to JSON and waits for the server ID. Trace
// context from ctx travels in the message attributes.
func (p *Publisher) Publish(ctx context.Context, event notify.Event) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	attrs := map[string]string{
		"type":   event.Type,
		"period": strconv.Itoa(event.Period),
	}
	if event.RunID != "" {
		attrs["run_id"] = event.RunID
	}
	otel.GetTextMapPropagator().Inject(ctx, attributeCarrier(attrs))

	id, err := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Close flushes pending messages and closes the client when Open created it.
func (p *Publisher) Close() error {
	p.topic.Stop()
	if !p.owned {
		return nil
	}
	return p.client.Close()
}

// attributeCarrier implements propagation.TextMapCarrier over message attributes.
type attributeCarrier map[string]string

func (c attributeCarrier) Get(key string) string { return c[key] }

func (c attributeCarrier) Set(key, value string) { c[key] = value }

func (c attributeCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
