package gateway

// Contract identifies an instrument.
type Contract struct {
	ConID           int64   `json:"conId,omitempty"`
	Symbol          string  `json:"symbol,omitempty"`
	SecType         string  `json:"secType,omitempty"`
	Expiry          string  `json:"expiry,omitempty"`
	Strike          float64 `json:"strike,omitempty"`
	Right           string  `json:"right,omitempty"`
	Multiplier      string  `json:"multiplier,omitempty"`
	Exchange        string  `json:"exchange,omitempty"`
	PrimaryExchange string  `json:"primaryExch,omitempty"`
	Currency        string  `json:"currency,omitempty"`
	LocalSymbol     string  `json:"localSymbol,omitempty"`
	TradingClass    string  `json:"tradingClass,omitempty"`
}

// Order is the subset of order fields the gateway accepts.
type Order struct {
	Action        string  `json:"action"`
	TotalQuantity float64 `json:"totalQuantity"`
	OrderType     string  `json:"orderType"`
	LimitPrice    float64 `json:"lmtPrice,omitempty"`
	AuxPrice      float64 `json:"auxPrice,omitempty"`
	TimeInForce   string  `json:"tif,omitempty"`
	Account       string  `json:"account,omitempty"`
	Transmit      bool    `json:"transmit"`
	ParentID      int64   `json:"parentId,omitempty"`
	OCAGroup      string  `json:"ocaGroup,omitempty"`
}

// OrderState is the margin and commission preview attached to an open order.
type OrderState struct {
	Status             string `json:"status"`
	InitMargin         string `json:"initMargin,omitempty"`
	MaintMargin        string `json:"maintMargin,omitempty"`
	EquityWithLoan     string `json:"equityWithLoan,omitempty"`
	Commission         string `json:"commission,omitempty"`
	CommissionCurrency string `json:"commissionCurrency,omitempty"`
	WarningText        string `json:"warningText,omitempty"`
}

// ExecutionFilter narrows an executions request.
type ExecutionFilter struct {
	ClientID int64  `json:"clientId,omitempty"`
	Account  string `json:"acctCode,omitempty"`
	Time     string `json:"time,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	SecType  string `json:"secType,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	Side     string `json:"side,omitempty"`
}

// Execution is one fill.
type Execution struct {
	ExecID      string  `json:"execId"`
	Time        string  `json:"time"`
	Account     string  `json:"acctNumber"`
	Exchange    string  `json:"exchange"`
	Side        string  `json:"side"`
	Shares      float64 `json:"shares"`
	Price       float64 `json:"price"`
	PermID      int64   `json:"permId"`
	ClientID    int64   `json:"clientId"`
	OrderID     int64   `json:"orderId"`
	CumQty      float64 `json:"cumQty"`
	AvgPrice    float64 `json:"avgPrice"`
	OrderRef    string  `json:"orderRef,omitempty"`
	Liquidation int     `json:"liquidation,omitempty"`
}

// ScannerSubscription describes a market scanner.
type ScannerSubscription struct {
	NumberOfRows int     `json:"numberOfRows,omitempty"`
	Instrument   string  `json:"instrument"`
	LocationCode string  `json:"locationCode"`
	ScanCode     string  `json:"scanCode"`
	AbovePrice   float64 `json:"abovePrice,omitempty"`
	BelowPrice   float64 `json:"belowPrice,omitempty"`
	AboveVolume  int64   `json:"aboveVolume,omitempty"`
}

// ContractDetails carries the full description of a contract.
type ContractDetails struct {
	Contract     Contract `json:"summary"`
	MarketName   string   `json:"marketName,omitempty"`
	MinTick      float64  `json:"minTick,omitempty"`
	OrderTypes   string   `json:"orderTypes,omitempty"`
	ValidExchs   string   `json:"validExchanges,omitempty"`
	LongName     string   `json:"longName,omitempty"`
	Industry     string   `json:"industry,omitempty"`
	Category     string   `json:"category,omitempty"`
	TimeZoneID   string   `json:"timeZoneId,omitempty"`
	TradingHours string   `json:"tradingHours,omitempty"`
	LiquidHours  string   `json:"liquidHours,omitempty"`
}

// CommissionReport is the commission charged for one execution.
type CommissionReport struct {
	ExecID              string  `json:"execId"`
	Commission          float64 `json:"commission"`
	Currency            string  `json:"currency"`
	RealizedPNL         float64 `json:"realizedPNL"`
	Yield               float64 `json:"yield"`
	YieldRedemptionDate int64   `json:"yieldRedemptionDate"`
}
