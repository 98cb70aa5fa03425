package fundamental

// knownTickers maps common trading tickers to their CoinGecko IDs, so
// the usual universe resolves without burning search calls.
var knownTickers = map[string]string{
	"BTC":    "bitcoin",
	"ETH":    "ethereum",
	"SOL":    "solana",
	"BNB":    "binancecoin",
	"XRP":    "ripple",
	"ADA":    "cardano",
	"DOGE":   "dogecoin",
	"AVAX":   "avalanche-2",
	"DOT":    "polkadot",
	"MATIC":  "matic-network",
	"LINK":   "chainlink",
	"SHIB":   "shiba-inu",
	"LTC":    "litecoin",
	"UNI":    "uniswap",
	"ATOM":   "cosmos",
	"XLM":    "stellar",
	"ETC":    "ethereum-classic",
	"FIL":    "filecoin",
	"APT":    "aptos",
	"NEAR":   "near",
	"ARB":    "arbitrum",
	"OP":     "optimism",
	"SUI":    "sui",
	"INJ":    "injective-protocol",
	"SEI":    "sei-network",
	"TIA":    "celestia",
	"PEPE":   "pepe",
	"WIF":    "dogwifcoin",
	"BONK":   "bonk",
	"FLOKI":  "floki",
	"RENDER": "render-token",
	"RNDR":   "render-token",
	"FET":    "fetch-ai",
	"GRT":    "the-graph",
	"IMX":    "immutable-x",
	"SAND":   "the-sandbox",
	"MANA":   "decentraland",
	"AXS":    "axie-infinity",
	"GALA":   "gala",
	"ENJ":    "enjincoin",
	"CHZ":    "chiliz",
	"CRV":    "curve-dao-token",
	"AAVE":   "aave",
	"MKR":    "maker",
	"SNX":    "havven",
	"COMP":   "compound-governance-token",
	"SUSHI":  "sushi",
	"YFI":    "yearn-finance",
	"1INCH":  "1inch",
	"BGB":    "bitget-token",
}

// coinNames maps tickers to full coin names for storage partition keys
// and LLM prompts.
var coinNames = map[string]string{
	"BTC":   "Bitcoin",
	"ETH":   "Ethereum",
	"USDT":  "Tether",
	"BNB":   "BNB",
	"SOL":   "Solana",
	"XRP":   "Ripple",
	"USDC":  "USD Coin",
	"ADA":   "Cardano",
	"AVAX":  "Avalanche",
	"DOGE":  "Dogecoin",
	"DOT":   "Polkadot",
	"TRX":   "Tron",
	"LINK":  "Chainlink",
	"MATIC": "Polygon",
	"TON":   "Toncoin",
	"SHIB":  "Shiba Inu",
	"LTC":   "Litecoin",
	"BCH":   "Bitcoin Cash",
	"ATOM":  "Cosmos",
	"UNI":   "Uniswap",
	"XLM":   "Stellar",
	"NEAR":  "NEAR Protocol",
	"APT":   "Aptos",
	"ARB":   "Arbitrum",
	"OP":    "Optimism",
	"FIL":   "Filecoin",
	"HBAR":  "Hedera",
	"VET":   "VeChain",
	"ALGO":  "Algorand",
	"AAVE":  "Aave",
	"SUI":   "Sui",
	"INJ":   "Injective",
	"IMX":   "Immutable X",
	"FTM":   "Fantom",
	"SAND":  "The Sandbox",
	"MANA":  "Decentraland",
	"AXS":   "Axie Infinity",
	"CRV":   "Curve DAO",
	"RUNE":  "THORChain",
	"GALA":  "Gala",
	"APE":   "ApeCoin",
	"LDO":   "Lido DAO",
	"MKR":   "Maker",
	"SNX":   "Synthetix",
	"COMP":  "Compound",
	"ENS":   "Ethereum Name Service",
	"PEPE":  "Pepe",
	"WIF":   "dogwifhat",
	"BONK":  "Bonk",
	"FLOKI": "Floki",
	"BGB":   "Bitget Token",
}

// CoinName returns the full coin name for a ticker, or the ticker
// itself when unknown.
func CoinName(ticker string) string {
	if name, ok := coinNames[ticker]; ok {
		return name
	}
	return ticker
}
