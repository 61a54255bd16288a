package model

import "time"

// PoolWindowMetrics stores swap-ledger aggregates for one pool window.
// Amounts are base-10 strings in the pool's smallest unit.
type PoolWindowMetrics struct {
	PoolAddress    string    `json:"pool"`
	WindowSizeSecs int64     `json:"window_size_seconds"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	SwapCount      uint64    `json:"swap_count"`
	BuyCount       uint64    `json:"buy_count"`
	SellCount      uint64    `json:"sell_count"`
	ItemCount      uint64    `json:"item_count"`
	Volume         string    `json:"volume"`
	TradeFees      string    `json:"trade_fees"`
	ProtocolFees   string    `json:"protocol_fees"`
	Royalties      string    `json:"royalties"`
	CloseSpot      string    `json:"close_spot"`
}
