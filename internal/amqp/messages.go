package amqp

import (
	"encoding/json"
	"fmt"

	"kakeibo/internal/core"
)

// EncodeEvent converts the event to the JSON message body.
func EncodeEvent(ev core.Event) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeEvent parses a message body; the event type is required.
func DecodeEvent(data []byte) (core.Event, error) {
	var ev core.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return core.Event{}, err
	}
	if ev.Type == "" {
		return core.Event{}, fmt.Errorf("event without type")
	}
	return ev, nil
}
