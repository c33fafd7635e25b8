package models

import "strings"

const (
	keyPrefix = "asset:"
	// ChannelPrefix prefixes every Redis pub/sub channel carrying PriceUpdate payloads.
	ChannelPrefix = "prices."
)

// PriceUpdate is emitted every time an asset's price and changes are overwritten
type PriceUpdate struct {
	ID        int     `json:"id"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Changes   Changes `json:"changes"`
	Timestamp int64   `json:"timestamp"` // unix micro
	SeqID     int64   `json:"seq_id"`    // monotonic counter per asset, 0 is the seed
	// Epoch names the store instance that produced SeqID. Sequences restart
	// at 1 with every new epoch, so ordering only holds within one epoch.
	Epoch string `json:"epoch,omitempty"`
}

// SnapshotKey is the Redis key holding the latest PriceUpdate of a symbol.
func SnapshotKey(symbol string) string { return keyPrefix + strings.ToUpper(symbol) }

// ChannelName is the Redis pub/sub channel a symbol's updates are published on.
func ChannelName(symbol string) string { return ChannelPrefix + strings.ToUpper(symbol) }

// SymbolFromChannel reverses ChannelName. It reports false for foreign channels.
func SymbolFromChannel(channel string) (string, bool) {
	sym, ok := strings.CutPrefix(channel, ChannelPrefix)
	if !ok || sym == "" {
		return "", false
	}
	return sym, true
}
