package service

import (
	"tradeproof/internal/models"
	"tradeproof/internal/pagination"
	"tradeproof/internal/pipeline"
	"tradeproof/internal/repository"
)

// MessageQueryService serves the paginated, newest-first read model over the
// message log. Normalized records and the timestamp index are derived once
// at construction; decision status is joined live per query so it reflects
// the store.
type MessageQueryService struct {
	messages  repository.MessageRepository
	decisions repository.DecisionRepository
	index     *pagination.Index
	records   []models.NormalizedRecord
}

// NewMessageQueryService builds the derived view for the whole log.
func NewMessageQueryService(
	messages repository.MessageRepository,
	decisions repository.DecisionRepository,
	normalizer *pipeline.Normalizer,
) *MessageQueryService {
	all := messages.All()
	keys := make([]float64, len(all))
	records := make([]models.NormalizedRecord, len(all))
	for i, msg := range all {
		keys[i] = msg.Timestamp
		records[i] = normalizer.Normalize(msg)
	}

	return &MessageQueryService{
		messages:  messages,
		decisions: decisions,
		index:     pagination.NewIndex(keys),
		records:   records,
	}
}

// Query returns up to limit messages with timestamps strictly before the
// cursor, newest first. A non-nil passed filters on normalized validity.
func (s *MessageQueryService) Query(before float64, limit int, passed *bool) []models.MessageView {
	positions := s.index.Query(before, limit, func(pos int) bool {
		if passed == nil {
			return true
		}
		return s.records[pos].Valid == *passed
	})

	views := make([]models.MessageView, 0, len(positions))
	for _, pos := range positions {
		views = append(views, s.view(pos))
	}
	return views
}

func (s *MessageQueryService) view(pos int) models.MessageView {
	msg, _ := s.messages.Get(pos)
	rec := s.records[pos]

	view := models.MessageView{
		Index:       pos,
		Text:        msg.Text,
		Timestamp:   msg.Timestamp,
		Attachments: msg.Attachments,
		Sender:      rec.Sender,
		Receiver:    rec.Receiver,
		Date:        rec.Date,
		Valid:       rec.Valid,
		Reason:      rec.Reason,
		Status:      models.StatusPending,
	}
	if key, ok := msg.AttachmentKey(); ok {
		view.AttachmentKey = key
		view.Status = s.decisions.Status(key)
	}
	return view
}
