package models

// DecisionStatus is the three-state review status of an attachment key.
type DecisionStatus string

const (
	StatusPending  DecisionStatus = "pending"
	StatusAccepted DecisionStatus = "accepted"
	StatusRejected DecisionStatus = "rejected"
)

// NextTrade is the review queue's answer to a fetch-next request.
type NextTrade struct {
	MessageIndex int        `json:"message_index"`
	Filename     string     `json:"filename"`
	Metadata     *TradeData `json:"metadata"`
}

// Stats summarizes decision store contents against the reviewable set.
type Stats struct {
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Remaining int `json:"remaining"`
}
