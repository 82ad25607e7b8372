// Package pipeline turns raw messages into normalized, validated records.
package pipeline

import (
	"go.uber.org/zap"

	"tradeproof/internal/dates"
	"tradeproof/internal/decode"
	"tradeproof/internal/identity"
	"tradeproof/internal/models"
)

// Normalizer composes the text decoder, date resolver, and identity
// validator. Invalid source text is expected and common, so invalidity is
// recorded on the result rather than returned as an error.
type Normalizer struct {
	requireDate bool
	logger      *zap.Logger
}

// NewNormalizer creates a normalizer. When requireDate is set, records whose
// date cannot be resolved are marked invalid.
func NewNormalizer(requireDate bool, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		requireDate: requireDate,
		logger:      logger,
	}
}

// Normalize produces the derived record for one message. The message's own
// timestamp is the context for resolving relative or partial dates.
func (n *Normalizer) Normalize(msg models.RawMessage) models.NormalizedRecord {
	var rec models.NormalizedRecord

	if _, ok := msg.AttachmentKey(); !ok {
		rec.Reason = "message must have exactly one attachment"
		return rec
	}

	fields := decode.Fields(msg.Text)

	if fields.Sender == nil {
		rec.Reason = "sender not found"
		return rec
	}
	if ok, reason := identity.Validate(*fields.Sender); !ok {
		rec.Reason = "sender: " + reason
		return rec
	}
	rec.Sender = *fields.Sender

	if fields.Receiver == nil {
		rec.Reason = "receiver not found"
		return rec
	}
	if ok, reason := identity.Validate(*fields.Receiver); !ok {
		rec.Reason = "receiver: " + reason
		return rec
	}
	rec.Receiver = *fields.Receiver

	if fields.RawDate != nil {
		if d, ok := dates.Resolve(*fields.RawDate, msg.Timestamp); ok {
			rec.Date = d.Format("2006-01-02")
		}
	}
	if n.requireDate && rec.Date == "" {
		rec.Reason = "date could not be resolved"
		return rec
	}

	rec.Valid = true
	return rec
}
