package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
)

// PredictionClient submits attrition predictions to the service work queue.
type PredictionClient interface {
	Predict(ctx context.Context, features Features) (*PredictionResponse, error)
	CheckHealth(ctx context.Context) (*HealthStatus, error)
	Close() error
}

// Options locate the service on the bus. Zero fields take the server's
// defaults.
type Options struct {
	NatsURL        string
	ClientID       string
	ServiceName    string
	Subject        string
	ResponsePrefix string
	Timeout        time.Duration
}

// NATSClient publishes requests on the prediction subject and waits on a
// private reply subject for the worker's answer.
type NATSClient struct {
	conn *nats.Conn
	opts Options
}

func NewNATSClient(opts Options) (*NATSClient, error) {
	if opts.NatsURL == "" {
		opts.NatsURL = nats.DefaultURL
	}
	if opts.ClientID == "" {
		opts.ClientID = "attrition-client"
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "attrition"
	}
	if opts.Subject == "" {
		opts.Subject = "attrition.predict.request"
	}
	if opts.ResponsePrefix == "" {
		opts.ResponsePrefix = "attrition.predict.reply"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	conn, err := nats.Connect(opts.NatsURL, nats.Name(opts.ClientID))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSClient{conn: conn, opts: opts}, nil
}

func (c *NATSClient) Predict(ctx context.Context, features Features) (*PredictionResponse, error) {
	reqID := ulid.Make().String()
	replySubject := fmt.Sprintf("%s.%s.%s", c.opts.ResponsePrefix, c.opts.ClientID, reqID)

	request := PredictionRequest{
		ReqID:    reqID,
		Features: features,
		ReplyTo:  replySubject,
	}

	requestBytes, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Subscribe before publishing so a fast worker cannot reply into the void.
	replyChan := make(chan *nats.Msg, 1)
	sub, err := c.conn.Subscribe(replySubject, func(msg *nats.Msg) {
		replyChan <- msg
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to reply: %w", err)
	}
	defer sub.Unsubscribe()

	if err := c.conn.Publish(c.opts.Subject, requestBytes); err != nil {
		return nil, fmt.Errorf("failed to publish request: %w", err)
	}

	slog.Debug("Published prediction request", "req_id", reqID, "subject", c.opts.Subject, "reply_subject", replySubject)

	select {
	case msg := <-replyChan:
		var response PredictionResponse
		if err := json.Unmarshal(msg.Data, &response); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if response.Error != "" {
			return &response, errors.New(response.Error)
		}
		return &response, nil

	case <-time.After(c.opts.Timeout):
		return nil, fmt.Errorf("request timeout after %v", c.opts.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CheckHealth asks the service for its current status.
func (c *NATSClient) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	healthTopic := fmt.Sprintf("models.%s.health", c.opts.ServiceName)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, healthTopic, nil)
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}

	var health HealthStatus
	if err := json.Unmarshal(msg.Data, &health); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}
	return &health, nil
}

func (c *NATSClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
