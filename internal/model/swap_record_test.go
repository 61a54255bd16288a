package model

import (
	"encoding/json"
	"testing"
)

func TestSwapRecordJSONStringFields(t *testing.T) {
	record := SwapRecord{
		Pool:         "0x1111111111111111111111111111111111111111",
		Recipient:    "0x2222222222222222222222222222222222222222",
		Direction:    "buy",
		Items:        []string{"1", "2"},
		UnitPrices:   []string{"100000000000000000000", "110000000000000000000"},
		RawTotal:     "210000000000000000000",
		Principal:    "210000000000000000000",
		TradeFee:     "0",
		ProtocolFee:  "0",
		RoyaltyTotal: "0",
		Amount:       "210000000000000000000",
		SpotPrice:    "120000000000000000000",
		ExecutedAt:   "2024-01-01T00:00:00Z",
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"raw_total", "principal", "amount", "spot_price"} {
		if _, ok := decoded[key].(string); !ok {
			t.Fatalf("%s should be string", key)
		}
	}
	if _, ok := decoded["royalties"]; ok {
		t.Fatalf("empty royalties should be omitted")
	}
}
