package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/holiman/uint256"

	"nftPool/internal/fixedpoint"
	"nftPool/internal/pool"
)

type royaltyView struct {
	Item      string `json:"item,omitempty"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	ToPool    bool   `json:"to_pool"`
}

type quoteView struct {
	Code         string        `json:"code"`
	Error        string        `json:"error,omitempty"`
	Direction    string        `json:"direction"`
	Items        []string      `json:"items,omitempty"`
	UnitPrices   []string      `json:"unit_prices,omitempty"`
	RawTotal     string        `json:"raw_total,omitempty"`
	Principal    string        `json:"principal,omitempty"`
	TradeFee     string        `json:"trade_fee,omitempty"`
	ProtocolFee  string        `json:"protocol_fee,omitempty"`
	RoyaltyTotal string        `json:"royalty_total,omitempty"`
	Amount       string        `json:"amount,omitempty"`
	NewSpot      string        `json:"new_spot,omitempty"`
	Royalties    []royaltyView `json:"royalties,omitempty"`
	Recipient    string        `json:"recipient,omitempty"`
}

// newQuoteView renders amounts as 18-decimal values and ids as integers.
func newQuoteView(q pool.Quote, err error) quoteView {
	v := quoteView{
		Code:         q.Err.String(),
		Direction:    q.Direction.String(),
		Items:        ids(q.Items),
		UnitPrices:   amounts(q.UnitPrices),
		RawTotal:     amount(q.RawTotal),
		Principal:    amount(q.Principal),
		TradeFee:     amount(q.TradeFee),
		ProtocolFee:  amount(q.ProtocolFee),
		RoyaltyTotal: amount(q.RoyaltyTotal),
		Amount:       amount(q.Amount),
		NewSpot:      amount(q.NewState.SpotPrice),
	}
	if err != nil {
		v.Error = err.Error()
	}
	for _, r := range q.Royalties {
		rv := royaltyView{Recipient: r.Recipient.Hex(), Amount: amount(r.Amount), ToPool: r.ToPool}
		if r.Item != nil {
			rv.Item = r.Item.Dec()
		}
		v.Royalties = append(v.Royalties, rv)
	}
	return v
}

func amount(v *uint256.Int) string {
	if v == nil {
		return ""
	}
	return fixedpoint.Format(v)
}

func amounts(values []*uint256.Int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, amount(v))
	}
	return out
}

func ids(values []*uint256.Int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.Dec())
	}
	return out
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
