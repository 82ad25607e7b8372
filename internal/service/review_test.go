package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tradeproof/internal/models"
	"tradeproof/internal/repository"
)

// fakeExtractor returns canned trade data per image path and counts calls.
type fakeExtractor struct {
	calls map[string]int
	fail  map[string]bool
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{calls: map[string]int{}, fail: map[string]bool{}}
}

func (f *fakeExtractor) ExtractTradeData(_ context.Context, imagePath string) (*models.TradeData, error) {
	f.calls[imagePath]++
	if f.fail[imagePath] {
		return nil, errors.New("extractor unavailable")
	}
	return &models.TradeData{
		Outgoing: models.TradeSide{Items: []models.TradeItem{{ID: 1, Name: "Fedora"}}},
	}, nil
}

func newTagRepo(t *testing.T) repository.TagRepository {
	t.Helper()
	repo, err := repository.NewTagRepository(filepath.Join(t.TempDir(), "tags.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newReviewService(t *testing.T, messages []models.RawMessage, ext *fakeExtractor) (*ReviewService, repository.DecisionRepository) {
	t.Helper()
	logger := zap.NewNop()

	decisions, err := repository.NewDecisionRepository(t.TempDir(), logger)
	require.NoError(t, err)

	tags := newTagRepo(t)

	svc := NewReviewService(
		repository.NewMessageRepository(messages),
		decisions,
		tags,
		ext,
		"/media",
		time.Minute,
		logger,
	)
	return svc, decisions
}

func reviewMessages() []models.RawMessage {
	return []models.RawMessage{
		{Text: "no attachment", Timestamp: 1},
		{Text: "s: alice\nr: bob", Timestamp: 2, Attachments: []string{"a.png"}},
		{Text: "s: carol\nr: dave", Timestamp: 3, Attachments: []string{"b.png"}},
		{Text: "two images", Timestamp: 4, Attachments: []string{"c.png", "d.png"}},
	}
}

func TestNextTradeScansInOrder(t *testing.T) {
	ext := newFakeExtractor()
	svc, _ := newReviewService(t, reviewMessages(), ext)

	next, err := svc.NextTrade(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, next.MessageIndex)
	assert.Equal(t, "a.png", next.Filename)
	require.NotNil(t, next.Metadata)
	assert.Equal(t, int64(1), next.Metadata.Outgoing.Items[0].ID)
}

func TestNextTradeSkipsDecided(t *testing.T) {
	ext := newFakeExtractor()
	svc, decisions := newReviewService(t, reviewMessages(), ext)

	require.NoError(t, decisions.RecordReject("a.png"))

	next, err := svc.NextTrade(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "b.png", next.Filename)
}

func TestNextTradeHonorsExclusions(t *testing.T) {
	ext := newFakeExtractor()
	svc, _ := newReviewService(t, reviewMessages(), ext)

	next, err := svc.NextTrade(context.Background(), map[string]struct{}{"a.png": {}})
	require.NoError(t, err)
	assert.Equal(t, "b.png", next.Filename)
}

func TestNextTradeSkipsExtractorFailure(t *testing.T) {
	ext := newFakeExtractor()
	ext.fail["/media/a.png"] = true
	svc, _ := newReviewService(t, reviewMessages(), ext)

	next, err := svc.NextTrade(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "b.png", next.Filename)
}

func TestNextTradeExhausted(t *testing.T) {
	ext := newFakeExtractor()
	svc, decisions := newReviewService(t, reviewMessages(), ext)

	require.NoError(t, decisions.RecordAccept("a.png", json.RawMessage(`{}`)))
	require.NoError(t, decisions.RecordReject("b.png"))

	_, err := svc.NextTrade(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoPending)
}

func TestNextTradeCachesSuggestion(t *testing.T) {
	ext := newFakeExtractor()
	svc, _ := newReviewService(t, reviewMessages(), ext)

	for i := 0; i < 3; i++ {
		_, err := svc.NextTrade(context.Background(), nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, ext.calls["/media/a.png"])
}

func TestDecideRoutesActions(t *testing.T) {
	ext := newFakeExtractor()
	svc, decisions := newReviewService(t, reviewMessages(), ext)

	require.NoError(t, svc.Decide("a.png", "accept", json.RawMessage(`{"outgoing":{"items":[],"robux_value":0},"incoming":{"items":[],"robux_value":0}}`)))
	require.NoError(t, svc.Decide("b.png", "reject", nil))

	assert.Equal(t, models.StatusAccepted, decisions.Status("a.png"))
	assert.Equal(t, models.StatusRejected, decisions.Status("b.png"))

	assert.Error(t, svc.Decide("c.png", "defer", nil))
}

func TestDecideInvalidKey(t *testing.T) {
	ext := newFakeExtractor()
	svc, _ := newReviewService(t, reviewMessages(), ext)

	err := svc.Decide("../escape.png", "reject", nil)
	assert.ErrorIs(t, err, repository.ErrInvalidKey)
}

func TestStats(t *testing.T) {
	ext := newFakeExtractor()
	svc, decisions := newReviewService(t, reviewMessages(), ext)

	require.NoError(t, decisions.RecordAccept("a.png", json.RawMessage(`{}`)))

	stats, err := svc.Stats()
	require.NoError(t, err)
	// Only a.png and b.png are reviewable; zero- and multi-attachment
	// messages never enter the denominator.
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 0, stats.Rejected)
	assert.Equal(t, 1, stats.Remaining)
}
