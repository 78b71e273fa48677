package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"intelliinspect/internal/models"
)

const (
	sessionPlaceholder = "{session_id}"
	publishQoS         = 1
	publishTimeout     = 5 * time.Second
)

var errPublishTimeout = errors.New("mqtt publish timed out")

// Publisher is the part of mqtt.Client used to publish samples.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// SamplePublisher writes every accepted sample to a per-session topic.
type SamplePublisher struct {
	client       Publisher
	topicPattern string
}

// NewSamplePublisher creates a publisher. topicPattern may contain
// {session_id}, which is replaced on every publish.
func NewSamplePublisher(client Publisher, topicPattern string) *SamplePublisher {
	return &SamplePublisher{client: client, topicPattern: topicPattern}
}

type samplePayload struct {
	SessionID  string `json:"sessionId"`
	RecordedAt string `json:"recordedAt"`
	models.SimulationSample
}

// Record publishes sample as JSON and waits for the broker acknowledgement.
func (p *SamplePublisher) Record(ctx context.Context, sessionID string, sample models.SimulationSample) error {
	payload, err := json.Marshal(samplePayload{
		SessionID:        sessionID,
		RecordedAt:       time.Now().UTC().Format(time.RFC3339Nano),
		SimulationSample: sample,
	})
	if err != nil {
		return fmt.Errorf("marshal sample %s: %w", sample.SampleID, err)
	}

	topic := formatTopic(p.topicPattern, sessionID)
	token := p.client.Publish(topic, publishQoS, false, payload)

	timeout := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish sample %s to %s: %w", sample.SampleID, topic, errPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish sample %s to %s: %w", sample.SampleID, topic, err)
	}
	return nil
}

func formatTopic(pattern, sessionID string) string {
	return strings.ReplaceAll(pattern, sessionPlaceholder, sessionID)
}
