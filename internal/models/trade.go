package models

// TradeItem is a single item slot on one side of a trade screenshot.
type TradeItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TradeSide is one party's offer: up to four items plus a currency amount.
type TradeSide struct {
	Items      []TradeItem `json:"items"`
	RobuxValue int64       `json:"robux_value"`
}

// TradeData is the structured output of the visual extractor for one
// screenshot. The review service treats it as an opaque suggestion.
type TradeData struct {
	Outgoing TradeSide `json:"outgoing"`
	Incoming TradeSide `json:"incoming"`
}
