package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tradeproof/internal/models"
	"tradeproof/internal/pipeline"
	"tradeproof/internal/repository"
)

// Epoch for 2026-01-18 UTC, so "1/19" resolves within the context year.
const queryEpoch = 1768694400.0

func newQueryService(t *testing.T) (*MessageQueryService, repository.DecisionRepository) {
	t.Helper()
	logger := zap.NewNop()

	messages := []models.RawMessage{
		{Text: "sender: alice\nreceiver: bob\ndate: 1/19", Timestamp: queryEpoch, Attachments: []string{"a.png"}},
		{Text: "no labels here", Timestamp: queryEpoch + 10, Attachments: []string{"b.png"}},
		{Text: "sender: carol\nreceiver: dave\ndate: 1/19", Timestamp: queryEpoch + 20, Attachments: []string{"c.png"}},
		{Text: "chatter without attachments", Timestamp: queryEpoch + 30},
	}

	decisions, err := repository.NewDecisionRepository(t.TempDir(), logger)
	require.NoError(t, err)

	svc := NewMessageQueryService(
		repository.NewMessageRepository(messages),
		decisions,
		pipeline.NewNormalizer(true, logger),
	)
	return svc, decisions
}

func TestQueryNewestFirst(t *testing.T) {
	svc, _ := newQueryService(t)

	views := svc.Query(math.MaxFloat64, 50, nil)
	require.Len(t, views, 4)
	assert.Equal(t, 3, views[0].Index)
	assert.Equal(t, 2, views[1].Index)
	assert.Equal(t, 1, views[2].Index)
	assert.Equal(t, 0, views[3].Index)
}

func TestQueryCursorIsExclusive(t *testing.T) {
	svc, _ := newQueryService(t)

	views := svc.Query(queryEpoch+20, 50, nil)
	require.Len(t, views, 2)
	assert.Equal(t, 1, views[0].Index)
	assert.Equal(t, 0, views[1].Index)
}

func TestQueryLimit(t *testing.T) {
	svc, _ := newQueryService(t)

	views := svc.Query(math.MaxFloat64, 1, nil)
	require.Len(t, views, 1)
	assert.Equal(t, 3, views[0].Index)
}

func TestQueryPassedFilter(t *testing.T) {
	svc, _ := newQueryService(t)

	passed := true
	views := svc.Query(math.MaxFloat64, 50, &passed)
	require.Len(t, views, 2)
	assert.Equal(t, 2, views[0].Index)
	assert.Equal(t, "carol", views[0].Sender)
	assert.Equal(t, "2026-01-19", views[0].Date)
	assert.Equal(t, 0, views[1].Index)

	passed = false
	views = svc.Query(math.MaxFloat64, 50, &passed)
	require.Len(t, views, 2)
	assert.Equal(t, 3, views[0].Index)
	assert.Equal(t, 1, views[1].Index)
	assert.NotEmpty(t, views[1].Reason)
}

func TestQueryJoinsDecisionStatus(t *testing.T) {
	svc, decisions := newQueryService(t)

	require.NoError(t, decisions.RecordAccept("a.png", nil))
	require.NoError(t, decisions.RecordReject("b.png"))

	views := svc.Query(math.MaxFloat64, 50, nil)
	byKey := make(map[string]models.MessageView)
	for _, v := range views {
		byKey[v.AttachmentKey] = v
	}

	assert.Equal(t, models.StatusAccepted, byKey["a.png"].Status)
	assert.Equal(t, models.StatusRejected, byKey["b.png"].Status)
	assert.Equal(t, models.StatusPending, byKey["c.png"].Status)
	// The attachment-less message carries no key and stays pending.
	assert.Equal(t, models.StatusPending, byKey[""].Status)
}
