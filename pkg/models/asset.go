package models

import (
	"encoding/json"
	"fmt"
)

// Asset is a single tracked instrument. Only Price and the three change
// fields move after seeding.
type Asset struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	Symbol            string    `json:"symbol"`
	Price             float64   `json:"price"`
	Change1h          float64   `json:"change_1h"`
	Change24h         float64   `json:"change_24h"`
	Change7d          float64   `json:"change_7d"`
	MarketCap         float64   `json:"market_cap"`
	Volume24h         float64   `json:"volume_24h"`
	CirculatingSupply float64   `json:"circulating_supply"` // millions
	MaxSupply         MaxSupply `json:"max_supply"`         // millions
	Logo              string    `json:"logo"`
}

// Changes returns the three percentage changes of the asset.
func (a Asset) Changes() Changes {
	return Changes{H1: a.Change1h, H24: a.Change24h, D7: a.Change7d}
}

// Changes groups the signed percentage deltas over the 1h, 24h and 7d windows.
type Changes struct {
	H1  float64 `json:"1h"`
	H24 float64 `json:"24h"`
	D7  float64 `json:"7d"`
}

// MaxSupply is either a finite bound or no bound at all.
// The zero value is unbounded.
type MaxSupply struct {
	value   float64
	bounded bool
}

func Bounded(v float64) MaxSupply { return MaxSupply{value: v, bounded: true} }
func Unbounded() MaxSupply        { return MaxSupply{} }

// Value returns the bound and true, or 0 and false when unbounded.
func (m MaxSupply) Value() (float64, bool) { return m.value, m.bounded }
func (m MaxSupply) IsBounded() bool        { return m.bounded }

func (m MaxSupply) String() string {
	if !m.bounded {
		return "unbounded"
	}
	return fmt.Sprintf("%g", m.value)
}

// MarshalJSON encodes an unbounded supply as null.
func (m MaxSupply) MarshalJSON() ([]byte, error) {
	if !m.bounded {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

func (m *MaxSupply) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Unbounded()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("max supply: %w", err)
	}
	*m = Bounded(v)
	return nil
}
