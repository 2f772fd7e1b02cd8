package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	clientName = "raffler"

	maxDeliveries   = 3
	ackWait         = 30 * time.Second
	streamRetention = 30 * 24 * time.Hour
)

// ErrNotConnected is returned when the client is used before Connect
var ErrNotConnected = errors.New("not connected to NATS")

// NATSClient owns the service's NATS connection. JetStream carries durable
// traffic (domain events, fulfillments) and core NATS carries request-reply.
type NATSClient struct {
	url           string
	conn          *nats.Conn
	jetStream     nats.JetStreamContext
	consumers     map[string]*nats.Subscription
	mu            sync.RWMutex
	reconnectWait time.Duration
	maxReconnects int
}

// NewNATSClient creates a client for a comma-separated server list
func NewNATSClient(url string) *NATSClient {
	return &NATSClient{
		url:           url,
		consumers:     make(map[string]*nats.Subscription),
		reconnectWait: 2 * time.Second,
		maxReconnects: 10,
	}
}

func (c *NATSClient) connectionOptions(ctx context.Context) []nats.Option {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err == nil {
				log.Warn("NATS connection lost")
				return
			}
			log.WithError(err).Error("NATS connection lost")
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			log.WithField("server", conn.ConnectedUrl()).Info("NATS connection restored")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			entry := log.WithError(err)
			if sub != nil {
				entry = entry.WithField("subject", sub.Subject)
			}
			entry.Error("NATS async error")
		}),
	}

	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}
	return opts
}

// Connect dials NATS and opens a JetStream context
func (c *NATSClient) Connect(ctx context.Context) error {
	conn, err := nats.Connect(c.url, c.connectionOptions(ctx)...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	jetStream, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open JetStream context: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.jetStream = jetStream
	c.mu.Unlock()

	log.WithField("servers", c.url).Info("NATS connected")
	return nil
}

// durableName derives a stable consumer name from a subject
func durableName(subject string) string {
	replacer := strings.NewReplacer(".", "_", "*", "any", ">", "rest")
	return clientName + "-" + replacer.Replace(subject)
}

// Subscribe attaches a durable JetStream consumer to subject. The message is
// acked when handler returns nil and nacked otherwise, so a failing message
// is retried until it has been delivered maxDeliveries times.
func (c *NATSClient) Subscribe(subject string, handler func([]byte) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.jetStream == nil {
		return ErrNotConnected
	}

	sub, err := c.jetStream.Subscribe(
		subject,
		func(msg *nats.Msg) {
			settle(msg, handler(msg.Data))
		},
		nats.Durable(durableName(subject)),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.MaxDeliver(maxDeliveries),
		nats.AckWait(ackWait),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	c.consumers[subject] = sub
	log.WithFields(log.Fields{
		"subject": subject,
		"durable": durableName(subject),
	}).Info("JetStream consumer attached")
	return nil
}

func settle(msg *nats.Msg, handlerErr error) {
	if handlerErr == nil {
		if err := msg.Ack(); err != nil {
			log.WithError(err).WithField("subject", msg.Subject).Error("Ack failed")
		}
		return
	}

	log.WithError(handlerErr).WithField("subject", msg.Subject).Error("Message handler failed, requesting redelivery")
	if err := msg.Nak(); err != nil {
		log.WithError(err).WithField("subject", msg.Subject).Error("Nak failed")
	}
}

// Request sends data on subject over core NATS and waits for one reply
func (c *NATSClient) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return nil, ErrNotConnected
	}

	reply, err := conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("request on %s failed: %w", subject, err)
	}
	return reply.Data, nil
}

// Publish stores a message on subject through JetStream
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	c.mu.RLock()
	jetStream := c.jetStream
	c.mu.RUnlock()

	if jetStream == nil {
		return ErrNotConnected
	}

	ack, err := jetStream.Publish(subject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"subject":  subject,
		"stream":   ack.Stream,
		"sequence": ack.Sequence,
		"bytes":    len(data),
	}).Debug("Message stored in JetStream")
	return nil
}

// EnsureStream creates the named stream, or widens an existing one so that
// it covers every subject in subjects
func (c *NATSClient) EnsureStream(name, description string, subjects []string) error {
	c.mu.RLock()
	jetStream := c.jetStream
	c.mu.RUnlock()

	if jetStream == nil {
		return ErrNotConnected
	}

	info, err := jetStream.StreamInfo(name)
	switch {
	case errors.Is(err, nats.ErrStreamNotFound):
		_, err = jetStream.AddStream(&nats.StreamConfig{
			Name:        name,
			Description: description,
			Subjects:    subjects,
			Retention:   nats.LimitsPolicy,
			MaxAge:      streamRetention,
			Storage:     nats.FileStorage,
			Replicas:    1,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}
		log.WithFields(log.Fields{"stream": name, "subjects": subjects}).Info("JetStream stream created")
		return nil

	case err != nil:
		return fmt.Errorf("failed to look up stream %s: %w", name, err)
	}

	missing := false
	merged := slices.Clone(info.Config.Subjects)
	for _, subject := range subjects {
		if !slices.Contains(merged, subject) {
			merged = append(merged, subject)
			missing = true
		}
	}
	if !missing {
		log.WithField("stream", name).Debug("JetStream stream up to date")
		return nil
	}

	updated := info.Config
	updated.Subjects = merged
	if _, err := jetStream.UpdateStream(&updated); err != nil {
		return fmt.Errorf("failed to update stream %s: %w", name, err)
	}
	log.WithFields(log.Fields{"stream": name, "subjects": merged}).Info("JetStream stream subjects updated")
	return nil
}

// IsConnected reports whether the connection is currently up
func (c *NATSClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}

// Close closes the connection. Subscriptions are dropped without being
// unsubscribed so the durable consumers, and their unacked messages, survive
// a restart.
func (c *NATSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.consumers)
	if c.conn == nil {
		return nil
	}

	c.conn.Close()
	c.conn = nil
	c.jetStream = nil
	log.Info("NATS connection closed")
	return nil
}
