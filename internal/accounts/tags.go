package accounts

import "strings"

// SummaryTags are the account summary tags requested by default.
var SummaryTags = []string{
	"AccountType",
	"NetLiquidation",
	"TotalCashValue",
	"SettledCash",
	"AccruedCash",
	"BuyingPower",
	"EquityWithLoanValue",
	"PreviousEquityWithLoanValue",
	"GrossPositionValue",
	"RegTEquity",
	"RegTMargin",
	"SMA",
	"InitMarginReq",
	"MaintMarginReq",
	"AvailableFunds",
	"ExcessLiquidity",
	"Cushion",
	"FullInitMarginReq",
	"FullMaintMarginReq",
	"FullAvailableFunds",
	"FullExcessLiquidity",
	"LookAheadNextChange",
	"LookAheadInitMarginReq",
	"LookAheadMaintMarginReq",
	"LookAheadAvailableFunds",
	"LookAheadExcessLiquidity",
	"HighestSeverity",
	"DayTradesRemaining",
	"Leverage",
}

func defaultTags() string {
	return strings.Join(SummaryTags, ",")
}
