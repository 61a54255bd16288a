package model

// PoolSnapshot is the storage form of a pool. Amounts are base-10 strings;
// curve props and state are hex ABI blobs.
type PoolSnapshot struct {
	Address          string   `json:"address"`
	Owner            string   `json:"owner"`
	Mode             string   `json:"mode"`
	Curve            string   `json:"curve"`
	SpotPrice        string   `json:"spot_price"`
	Delta            string   `json:"delta"`
	CurveProps       string   `json:"curve_props,omitempty"`
	CurveState       string   `json:"curve_state,omitempty"`
	TradeFee         string   `json:"trade_fee"`
	RoyaltyNumerator string   `json:"royalty_numerator"`
	RoyaltyFallback  string   `json:"royalty_fallback,omitempty"`
	FilterRoot       string   `json:"filter_root"`
	FilterEncoded    string   `json:"filter_encoded,omitempty"`
	Items            []string `json:"items"`
	Reserve          string   `json:"reserve"`
	Destroyed        bool     `json:"destroyed"`
	UpdatedAt        string   `json:"updated_at"`
}
