// Package queue decodes generation requests from broker messages, runs them
// through the generation service and publishes correlated replies.
package queue

import (
	"fmt"

	"devlog-ai/internal/domain/entity"
)

// Queue names shared with the producers.
const (
	TitleQueue         = "titleQueue"
	RetrospectiveQueue = "retrospectiveQueue"
	ExperienceQueue    = "experienceQueue"
	ResponseQueue      = "responseQueue"
)

// RequestQueues returns the queues that carry generation requests, in declaration order.
func RequestQueues() []string {
	return []string{TitleQueue, RetrospectiveQueue, ExperienceQueue}
}

// AllQueues returns every queue declared at startup, including the default reply queue.
func AllQueues() []string {
	return append(RequestQueues(), ResponseQueue)
}

// QueueKind maps a request queue name to the generation kind it carries.
func QueueKind(name string) (entity.Kind, error) {
	switch name {
	case TitleQueue:
		return entity.KindTitle, nil
	case RetrospectiveQueue:
		return entity.KindRetrospective, nil
	case ExperienceQueue:
		return entity.KindExperience, nil
	default:
		return "", fmt.Errorf("%w: no request kind for queue %q", entity.ErrUnknownKind, name)
	}
}

// Delivery is a transport-neutral inbound message. Ack must be called exactly once.
type Delivery struct {
	Queue         string
	CorrelationID string
	ReplyTo       string
	Body          []byte
	Ack           func() error
}

// Envelope is a decoded delivery ready for generation.
type Envelope struct {
	Queue         string
	Kind          entity.Kind
	CorrelationID string
	ReplyTo       string
	Payload       entity.Request
}

// Reply is an outbound message addressed to the requester's reply destination.
type Reply struct {
	Destination   string
	CorrelationID string
	Body          []byte
}
