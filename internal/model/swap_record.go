package model

// SwapRecord is one committed swap as written to the swap ledger.
type SwapRecord struct {
	Pool         string          `json:"pool"`
	Mode         string          `json:"mode"`
	Recipient    string          `json:"recipient"`
	Direction    string          `json:"direction"`
	Items        []string        `json:"items,omitempty"`
	UnitPrices   []string        `json:"unit_prices"`
	RawTotal     string          `json:"raw_total"`
	Principal    string          `json:"principal"`
	TradeFee     string          `json:"trade_fee"`
	ProtocolFee  string          `json:"protocol_fee"`
	RoyaltyTotal string          `json:"royalty_total"`
	Amount       string          `json:"amount"`
	SpotPrice    string          `json:"spot_price"`
	Royalties    []RoyaltyRecord `json:"royalties,omitempty"`
	ExecutedAt   string          `json:"executed_at"`
}

// RoyaltyRecord is one royalty payment inside a SwapRecord.
type RoyaltyRecord struct {
	Item      string `json:"item,omitempty"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	ToPool    bool   `json:"to_pool"`
}
