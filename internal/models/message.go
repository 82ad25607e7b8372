package models

import (
	"encoding/json"
	"fmt"
)

// RawMessage is one entry of the buffer log. The wire format is a JSON
// tuple: [text, epoch_seconds, [attachments...]]. Messages are immutable
// once loaded.
type RawMessage struct {
	Text        string
	Timestamp   float64
	Attachments []string
}

// UnmarshalJSON decodes the positional tuple format of the buffer files.
func (m *RawMessage) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("message is not a tuple: %w", err)
	}
	if len(tuple) < 3 {
		return fmt.Errorf("message tuple has %d elements, want 3", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &m.Text); err != nil {
		return fmt.Errorf("message text: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &m.Timestamp); err != nil {
		return fmt.Errorf("message timestamp: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &m.Attachments); err != nil {
		return fmt.Errorf("message attachments: %w", err)
	}
	return nil
}

// MarshalJSON writes the same positional tuple the buffer files use.
func (m RawMessage) MarshalJSON() ([]byte, error) {
	attachments := m.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return json.Marshal([]interface{}{m.Text, m.Timestamp, attachments})
}

// AttachmentKey returns the single attachment filename joining this message
// to its image and eventual decision. Messages with zero or multiple
// attachments have no key and are excluded from the review pipeline.
func (m RawMessage) AttachmentKey() (string, bool) {
	if len(m.Attachments) != 1 {
		return "", false
	}
	return m.Attachments[0], true
}

// DecodedFields holds the raw substrings pulled out of a message body.
// A nil field means the label was never seen in the text.
type DecodedFields struct {
	Sender   *string
	Receiver *string
	RawDate  *string
}

// NormalizedRecord is the derived per-message view produced by the pipeline.
// It is recomputed from the raw message and never persisted.
type NormalizedRecord struct {
	Sender   string `json:"sender,omitempty"`
	Receiver string `json:"receiver,omitempty"`
	Date     string `json:"date,omitempty"`
	Valid    bool   `json:"valid"`
	Reason   string `json:"reason,omitempty"`
}

// MessageView is the read-model item served by the paginated messages API:
// the raw message joined with its normalized record and decision status.
type MessageView struct {
	Index         int            `json:"index"`
	Text          string         `json:"text"`
	Timestamp     float64        `json:"timestamp"`
	Attachments   []string       `json:"attachments"`
	Sender        string         `json:"sender,omitempty"`
	Receiver      string         `json:"receiver,omitempty"`
	Date          string         `json:"date,omitempty"`
	Valid         bool           `json:"valid"`
	Reason        string         `json:"reason,omitempty"`
	AttachmentKey string         `json:"attachment_key,omitempty"`
	Status        DecisionStatus `json:"status"`
}
