package service

import (
	"tradeproof/internal/models"
	"tradeproof/internal/repository"
)

var milestoneLabels = []string{
	"Seen 1x",
	"Seen 2-5x",
	"Seen 6-20x",
	"Seen 21-100x",
	"Seen 101+x",
}

// ItemDiscoveryReport tracks how the pool of distinct items grows as accepted
// trades accumulate. History holds, per milestone label, one sample per
// accepted trade in acceptance order.
type ItemDiscoveryReport struct {
	Trades  int              `json:"trades"`
	Labels  []string         `json:"labels"`
	History map[string][]int `json:"history"`
}

// AnalyticsService derives discovery curves from the accepted-trade archive.
type AnalyticsService struct {
	decisions repository.DecisionRepository
}

func NewAnalyticsService(decisions repository.DecisionRepository) *AnalyticsService {
	return &AnalyticsService{decisions: decisions}
}

func milestone(count int) string {
	switch {
	case count == 1:
		return milestoneLabels[0]
	case count <= 5:
		return milestoneLabels[1]
	case count <= 20:
		return milestoneLabels[2]
	case count <= 100:
		return milestoneLabels[3]
	default:
		return milestoneLabels[4]
	}
}

// ItemDiscovery replays accepted trades in acceptance order and, after each
// one, snapshots how many distinct items fall in each sighting bracket.
func (s *AnalyticsService) ItemDiscovery() (*ItemDiscoveryReport, error) {
	trades, err := s.decisions.AcceptedTrades()
	if err != nil {
		return nil, err
	}

	report := &ItemDiscoveryReport{
		Trades:  len(trades),
		Labels:  milestoneLabels,
		History: make(map[string][]int, len(milestoneLabels)),
	}
	for _, label := range milestoneLabels {
		report.History[label] = make([]int, 0, len(trades))
	}

	sightings := make(map[int64]int)
	for _, trade := range trades {
		for _, id := range tradeItemIDs(trade.Data) {
			sightings[id]++
		}

		bins := make(map[string]int, len(milestoneLabels))
		for _, count := range sightings {
			bins[milestone(count)]++
		}
		for _, label := range milestoneLabels {
			report.History[label] = append(report.History[label], bins[label])
		}
	}

	return report, nil
}

// tradeItemIDs returns the distinct item IDs on both sides of a trade. An ID
// of zero marks an item the extractor could not identify and is skipped.
func tradeItemIDs(trade models.TradeData) []int64 {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0, len(trade.Outgoing.Items)+len(trade.Incoming.Items))
	for _, side := range []models.TradeSide{trade.Outgoing, trade.Incoming} {
		for _, item := range side.Items {
			if item.ID == 0 {
				continue
			}
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			ids = append(ids, item.ID)
		}
	}
	return ids
}
