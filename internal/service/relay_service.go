package service

import (
	"context"
	"encoding/json"
	"log"

	"publo-orchestrator/internal/dto"
	internalWS "publo-orchestrator/internal/websocket"
	"publo-orchestrator/pkg/events"
	pktNats "publo-orchestrator/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IRelayService drains the in-process event topic and fans each workflow
// event out to the user's websocket clients and to the NATS bus.
type IRelayService interface {
	Consume(ctx context.Context) error
}

type relayService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	hub       *internalWS.Hub
	natsPub   *pktNats.Publisher
}

func NewRelayService(
	pubSub *gochannel.GoChannel,
	topicName string,
	hub *internalWS.Hub,
	natsPub *pktNats.Publisher,
) IRelayService {
	return &relayService{
		pubSub:    pubSub,
		topicName: topicName,
		hub:       hub,
		natsPub:   natsPub,
	}
}

func (rs *relayService) Consume(ctx context.Context) error {
	messages, err := rs.pubSub.Subscribe(ctx, rs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			rs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (rs *relayService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishWorkflowEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal workflow event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	data := make(map[string]interface{}, len(payload.Data)+1)
	for k, v := range payload.Data {
		data[k] = v
	}
	if payload.SessionId != "" {
		data["session_id"] = payload.SessionId
	}

	// Websocket delivery is fire-and-forget; a user with no open sockets
	// just misses the live view, the response still carries everything.
	if rs.hub != nil {
		rs.hub.Send(payload.UserId, payload.EventType, data)
	}

	if rs.natsPub != nil {
		evt := events.NewOrchestrationEvent(payload.EventType, payload.SessionId, payload.UserId.String(), payload.Data)
		if err := rs.natsPub.Publish(ctx, evt); err != nil {
			log.Printf("[ERROR] Failed to publish %s to NATS: %v", payload.EventType, err)
			msg.Nack() // Retriable
			return
		}
	}

	msg.Ack()
}
