package models

// SeedAssets returns a fresh copy of the five assets every session starts with.
func SeedAssets() []Asset {
	return []Asset{
		{
			ID: 1, Name: "Bitcoin", Symbol: "BTC",
			Price: 93759.48, Change1h: 0.43, Change24h: 0.93, Change7d: 11.11,
			MarketCap: 1861618902186, Volume24h: 43874950847,
			CirculatingSupply: 19.85, MaxSupply: Bounded(21),
			Logo: "btc.svg",
		},
		{
			ID: 2, Name: "Ethereum", Symbol: "ETH",
			Price: 1802.46, Change1h: 0.60, Change24h: 3.21, Change7d: 13.68,
			MarketCap: 217581279327, Volume24h: 23547468307,
			CirculatingSupply: 120.71, MaxSupply: Unbounded(),
			Logo: "eth.svg",
		},
		{
			ID: 3, Name: "Tether", Symbol: "USDT",
			Price: 1.00, Change1h: 0.00, Change24h: 0.00, Change7d: 0.04,
			MarketCap: 145320022085, Volume24h: 92288882007,
			CirculatingSupply: 145.27, MaxSupply: Unbounded(),
			Logo: "usdt.svg",
		},
		{
			ID: 4, Name: "XRP", Symbol: "XRP",
			Price: 2.22, Change1h: 0.46, Change24h: 0.54, Change7d: 6.18,
			MarketCap: 130073814966, Volume24h: 5131481491,
			CirculatingSupply: 58.39, MaxSupply: Bounded(100),
			Logo: "xrp.svg",
		},
		{
			ID: 5, Name: "BNB", Symbol: "BNB",
			Price: 606.65, Change1h: 0.09, Change24h: -1.20, Change7d: 3.73,
			MarketCap: 85471956947, Volume24h: 1874281784,
			CirculatingSupply: 140.69, MaxSupply: Bounded(200),
			Logo: "bnb.svg",
		},
	}
}
