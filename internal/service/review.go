package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"tradeproof/internal/extractor"
	"tradeproof/internal/models"
	"tradeproof/internal/repository"
)

// ErrNoPending means every reviewable message has been decided or excluded.
var ErrNoPending = errors.New("no pending trades")

// ReviewService hands out pending candidates and records verdicts. The scan
// is linear over the stored message order and re-executed per call; the live
// pool only shrinks, so no further index is needed.
type ReviewService struct {
	messages    repository.MessageRepository
	decisions   repository.DecisionRepository
	tags        repository.TagRepository
	extractor   extractor.TradeExtractor
	mediaDir    string
	suggestions *cache.Cache
	logger      *zap.Logger
}

// NewReviewService creates a review service. Suggestions are cached per
// attachment key so a candidate re-served after a client drops it does not
// re-run the extractor.
func NewReviewService(
	messages repository.MessageRepository,
	decisions repository.DecisionRepository,
	tags repository.TagRepository,
	tradeExtractor extractor.TradeExtractor,
	mediaDir string,
	suggestionTTL time.Duration,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		messages:    messages,
		decisions:   decisions,
		tags:        tags,
		extractor:   tradeExtractor,
		mediaDir:    mediaDir,
		suggestions: cache.New(suggestionTTL, 2*suggestionTTL),
		logger:      logger,
	}
}

// NextTrade returns the first message with exactly one attachment whose
// decision is still pending and whose key is not excluded, together with the
// extractor's suggestion. An extractor failure skips that candidate and the
// scan continues.
func (s *ReviewService) NextTrade(ctx context.Context, exclude map[string]struct{}) (*models.NextTrade, error) {
	for i, msg := range s.messages.All() {
		key, ok := msg.AttachmentKey()
		if !ok {
			continue
		}
		if _, skipped := exclude[key]; skipped {
			continue
		}
		if s.decisions.Status(key) != models.StatusPending {
			continue
		}

		metadata, err := s.suggestion(ctx, key)
		if err != nil {
			s.logger.Warn("Extractor failed for candidate, skipping",
				zap.String("filename", key),
				zap.Error(err))
			continue
		}

		return &models.NextTrade{
			MessageIndex: i,
			Filename:     key,
			Metadata:     metadata,
		}, nil
	}
	return nil, ErrNoPending
}

func (s *ReviewService) suggestion(ctx context.Context, key string) (*models.TradeData, error) {
	if cached, ok := s.suggestions.Get(key); ok {
		return cached.(*models.TradeData), nil
	}

	data, err := s.extractor.ExtractTradeData(ctx, filepath.Join(s.mediaDir, key))
	if err != nil {
		return nil, err
	}

	s.suggestions.Set(key, data, cache.DefaultExpiration)
	return data, nil
}

// Decide routes a verdict to the decision store and appends to the audit
// log. Audit failures are logged, not surfaced: the decision itself is the
// durable record.
func (s *ReviewService) Decide(key, action string, metadata json.RawMessage) error {
	var err error
	switch action {
	case "accept":
		err = s.decisions.RecordAccept(key, metadata)
	case "reject":
		err = s.decisions.RecordReject(key)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		return err
	}

	s.suggestions.Delete(key)

	if err := s.tags.RecordAction(key, action); err != nil {
		s.logger.Error("Failed to record action in audit log",
			zap.String("filename", key),
			zap.String("action", action),
			zap.Error(err))
	}
	return nil
}

// Stats reports decision counts against the reviewable message total.
func (s *ReviewService) Stats() (*models.Stats, error) {
	accepted, rejected, err := s.decisions.Counts()
	if err != nil {
		return nil, err
	}

	total := 0
	for _, msg := range s.messages.All() {
		if _, ok := msg.AttachmentKey(); ok {
			total++
		}
	}

	return &models.Stats{
		Accepted:  accepted,
		Rejected:  rejected,
		Remaining: total - accepted - rejected,
	}, nil
}
