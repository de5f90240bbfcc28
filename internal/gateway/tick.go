package gateway

var tickTypeNames = [...]string{
	"bidSize", "bidPrice", "askPrice", "askSize", "lastPrice", "lastSize",
	"high", "low", "volume", "close",
	"bidOptComp", "askOptComp", "lastOptComp", "modelOptComp",
	"open", "low13Week", "high13Week", "low26Week", "high26Week", "low52Week", "high52Week",
	"avgVolume", "openInterest", "optionHistoricalVol", "optionImpliedVol",
	"optionBidExch", "optionAskExch", "optionCallOpenInterest", "optionPutOpenInterest",
	"optionCallVolume", "optionPutVolume", "indexFuturePremium", "bidExch", "askExch",
	"auctionVolume", "auctionPrice", "auctionImbalance", "markPrice",
	"bidEFPComputation", "askEFPComputation", "lastEFPComputation", "openEFPComputation",
	"highEFPComputation", "lowEFPComputation", "closeEFPComputation",
	"lastTimestamp", "shortable", "fundamentalRatios", "rtVolume", "halted",
	"bidYield", "askYield", "lastYield", "custOptComp",
	"tradeCount", "tradeRate", "volumeRate", "lastRTHTrade",
}

// TickTypeName returns the gateway name of a tick type.
func TickTypeName(tickType int) string {
	if tickType < 0 || tickType >= len(tickTypeNames) {
		return "unknown"
	}
	return tickTypeNames[tickType]
}
