package wsrelay

import (
	"time"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/capture"
)

// Message represents the JSON payload exchanged with websocket clients.
type Message struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

const (
	// MessageTypeHello is sent once after the upgrade.
	MessageTypeHello = "hello"
	// MessageTypeCapture announces a newly stored capture.
	MessageTypeCapture = "capture"
	// MessageTypeCleared announces removed captures.
	MessageTypeCleared = "cleared"
	// MessageTypePrefillPending tells generator pages a prefill is waiting.
	MessageTypePrefillPending = "prefill_pending"
	// MessageTypePrefilled tells other pages the prefill was taken.
	MessageTypePrefilled = "prefilled"
	// MessageTypeConsumePrefill is sent by a client to take the pending prefill.
	MessageTypeConsumePrefill = "consume_prefill"
	// MessageTypePrefill answers MessageTypeConsumePrefill.
	MessageTypePrefill = "prefill"
	// MessageTypeError carries an error response.
	MessageTypeError = "error"
	// MessageTypePing represents ping messages from clients.
	MessageTypePing = "ping"
	// MessageTypePong represents pong responses back to clients.
	MessageTypePong = "pong"
)

var eventMessageTypes = map[capture.EventType]string{
	capture.EventSaved:          MessageTypeCapture,
	capture.EventCleared:        MessageTypeCleared,
	capture.EventPrefillPending: MessageTypePrefillPending,
	capture.EventPrefilled:      MessageTypePrefilled,
}

// FromEvent converts a capture event into its wire message.
func FromEvent(ev capture.Event) Message {
	msgType, ok := eventMessageTypes[ev.Type]
	if !ok {
		msgType = string(ev.Type)
	}
	payload := map[string]any{"at": ev.At.Format(time.RFC3339Nano)}
	if ev.Kind != "" {
		payload["kind"] = string(ev.Kind)
	}
	if ev.Capture != nil {
		payload["capture"] = captureFields(*ev.Capture)
	}
	return Message{Type: msgType, Payload: payload}
}

// PrefillMessage answers a consume request. pending is false when nothing
// was waiting.
func PrefillMessage(id string, p capture.Prefill, pending bool) Message {
	payload := map[string]any{"pending": pending}
	if p.Tools != nil {
		payload["tools"] = captureFields(*p.Tools)
	}
	if p.Messages != nil {
		payload["messages"] = captureFields(*p.Messages)
	}
	return Message{ID: id, Type: MessageTypePrefill, Payload: payload}
}

// ErrorMessage reports a failed client request.
func ErrorMessage(id string, err error) Message {
	return Message{ID: id, Type: MessageTypeError, Payload: map[string]any{"error": err.Error()}}
}

func captureFields(c capture.Capture) map[string]any {
	out := map[string]any{
		"id":        c.ID,
		"kind":      string(c.Kind),
		"payload":   c.Payload,
		"count":     c.Count,
		"createdAt": c.CreatedAt.Format(time.RFC3339Nano),
	}
	if c.AgentName != "" {
		out["agentName"] = c.AgentName
	}
	if c.Source != "" {
		out["source"] = c.Source
	}
	return out
}
