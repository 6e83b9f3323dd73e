package domain

// Market identifies a CS2 skin marketplace tracked by the engine. The values
// match the identifiers used by the market-data provider.
type Market string

const (
	MarketSteamCommunity Market = "STEAMCOMMUNITY"
	MarketSkinBaron      Market = "SKINBARON"
	MarketSkinport       Market = "SKINPORT"
	MarketCSMoney        Market = "CSMONEY"
	MarketWhiteMarket    Market = "WHITEMARKET"
	MarketBuffMarket     Market = "BUFFMARKET"
	MarketGamerPay       Market = "GAMERPAYGG"
	MarketCSFloat        Market = "CSFLOAT"
	MarketCSDeals        Market = "CSDEALS"
	MarketSkins          Market = "SKINS"
)

// AllMarkets returns every marketplace the provider supports, in a stable
// order suitable for query parameters.
func AllMarkets() []Market {
	return []Market{
		MarketSteamCommunity,
		MarketSkinBaron,
		MarketSkinport,
		MarketCSMoney,
		MarketWhiteMarket,
		MarketBuffMarket,
		MarketGamerPay,
		MarketCSFloat,
		MarketCSDeals,
		MarketSkins,
	}
}

// Currency is the ISO currency code prices are denominated in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)
