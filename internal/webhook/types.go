package webhook

import (
	"encoding/json"
	"time"
)

// Event types that can trigger webhooks
const (
	EventFlagCreated = "flag.created"
	EventFlagUpdated = "flag.updated"
	EventFlagToggled = "flag.toggled"
	EventFlagDeleted = "flag.deleted"
)

// Event represents a webhook event that will be sent to configured endpoints
type Event struct {
	ID        string    `json:"id"` // unique delivery correlation id
	Type      string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Resource  Resource  `json:"resource"`
	Data      EventData `json:"data"`
	Metadata  Metadata  `json:"metadata"`
}

// Resource identifies the resource that triggered the event
type Resource struct {
	Type string `json:"type"` // always "flag"
	Key  string `json:"key"`  // the flag key
}

// EventData contains the flag state around the mutation
type EventData struct {
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
}

// Metadata contains additional context about the event
type Metadata struct {
	IPAddress string `json:"ip_address,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
