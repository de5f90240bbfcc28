package gateway

import (
	"fmt"
	"strings"

	"ibgw/pkg/exception"
)

// Event is one callback reported by the connection adapter.
type Event interface {
	Route() Route
}

// TransportError is an error the gateway reported for a correlation id.
type TransportError struct {
	ID      int64
	Code    int
	Message string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: id %d, code %d, %s", exception.ErrTransport, e.ID, e.Code, e.Message)
}

func (e *TransportError) Unwrap() error {
	return exception.ErrTransport
}

type Connected struct{}

func (Connected) Route() Route { return Route{Signal: SignalConnected} }

type Disconnected struct{}

func (Disconnected) Route() Route { return Route{Signal: SignalDisconnected} }

// Error is reported for a request id, or with id <= 0 as a connection level notice.
type Error struct {
	ID      int64  `json:"id"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e Error) Route() Route {
	if e.ID > 0 {
		return Route{
			Key:    idKey(e.ID),
			Signal: SignalError,
			Err:    &TransportError{ID: e.ID, Code: e.Code, Message: e.Message},
		}
	}
	return data(stream(StreamSystem), e)
}

type CurrentTime struct {
	Time int64 `json:"time"`
}

func (e CurrentTime) Route() Route { return data(stream(StreamCurrentTime), e.Time) }

type ContractDetailsData struct {
	ReqID   int64           `json:"reqId"`
	Details ContractDetails `json:"contract"`
}

func (e ContractDetailsData) Route() Route { return data(idKey(e.ReqID), e.Details) }

type BondContractDetails struct {
	ReqID   int64           `json:"reqId"`
	Details ContractDetails `json:"contract"`
}

func (e BondContractDetails) Route() Route { return data(idKey(e.ReqID), e.Details) }

type ContractDetailsEnd struct {
	ReqID int64 `json:"reqId"`
}

func (e ContractDetailsEnd) Route() Route { return end(idKey(e.ReqID)) }

// FundamentalData carries an XML report. An empty report ends the request.
type FundamentalData struct {
	ReqID int64  `json:"reqId"`
	Data  string `json:"data"`
}

func (e FundamentalData) Route() Route {
	if e.Data == "" {
		return end(idKey(e.ReqID))
	}
	return data(idKey(e.ReqID), e.Data)
}

// HistoricalData is one bar. A date starting with "finished" ends the request.
type HistoricalData struct {
	ReqID   int64   `json:"reqId"`
	Date    string  `json:"date"`
	Open    float64 `json:"open"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Close   float64 `json:"close"`
	Volume  int64   `json:"volume"`
	Count   int64   `json:"count"`
	WAP     float64 `json:"wap"`
	HasGaps bool    `json:"hasGaps"`
}

func (e HistoricalData) Route() Route {
	if strings.HasPrefix(e.Date, "finished") {
		return end(idKey(e.ReqID))
	}
	return data(idKey(e.ReqID), e)
}

type RealtimeBar struct {
	ReqID  int64   `json:"reqId"`
	Date   int64   `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
	WAP    float64 `json:"wap"`
	Count  int64   `json:"count"`
}

func (e RealtimeBar) Route() Route { return data(idKey(e.ReqID), e) }

// Tick is the payload of every market data tick.
type Tick struct {
	Type           string `json:"type"`
	TickType       int    `json:"tickType"`
	Name           string `json:"name"`
	Value          any    `json:"value"`
	CanAutoExecute bool   `json:"canAutoExecute,omitempty"`
}

type TickPrice struct {
	TickerID       int64   `json:"tickerId"`
	TickType       int     `json:"tickType"`
	Price          float64 `json:"price"`
	CanAutoExecute bool    `json:"canAutoExecute"`
}

func (e TickPrice) Route() Route {
	return data(idKey(e.TickerID), Tick{
		Type:           "Price",
		TickType:       e.TickType,
		Name:           TickTypeName(e.TickType),
		Value:          e.Price,
		CanAutoExecute: e.CanAutoExecute,
	})
}

type TickSize struct {
	TickerID int64 `json:"tickerId"`
	TickType int   `json:"tickType"`
	Size     int64 `json:"size"`
}

func (e TickSize) Route() Route {
	return data(idKey(e.TickerID), Tick{Type: "Size", TickType: e.TickType, Name: TickTypeName(e.TickType), Value: e.Size})
}

type TickString struct {
	TickerID int64  `json:"tickerId"`
	TickType int    `json:"tickType"`
	Value    string `json:"value"`
}

func (e TickString) Route() Route {
	return data(idKey(e.TickerID), Tick{Type: "String", TickType: e.TickType, Name: TickTypeName(e.TickType), Value: e.Value})
}

type TickGeneric struct {
	TickerID int64   `json:"tickerId"`
	TickType int     `json:"tickType"`
	Value    float64 `json:"value"`
}

func (e TickGeneric) Route() Route {
	return data(idKey(e.TickerID), Tick{Type: "Generic", TickType: e.TickType, Name: TickTypeName(e.TickType), Value: e.Value})
}

// EFP is the value of an exchange-for-physical tick.
type EFP struct {
	BasisPoints          float64 `json:"basisPoints"`
	FormattedBasisPoints string  `json:"formattedBasisPoints"`
	ImpliedFuturesPrice  float64 `json:"impliedFuturesPrice"`
	HoldDays             int     `json:"holdDays"`
	FutureExpiry         string  `json:"futureExpiry"`
	DividendImpact       float64 `json:"dividendImpact"`
	DividendsToExpiry    float64 `json:"dividendsToExpiry"`
}

type TickEFP struct {
	TickerID int64 `json:"tickerId"`
	TickType int   `json:"tickType"`
	EFP
}

func (e TickEFP) Route() Route {
	return data(idKey(e.TickerID), Tick{Type: "EFP", TickType: e.TickType, Name: TickTypeName(e.TickType), Value: e.EFP})
}

// OptionComputation is the value of an option model tick.
type OptionComputation struct {
	ImpliedVol float64 `json:"impliedVol"`
	Delta      float64 `json:"delta"`
	OptPrice   float64 `json:"optPrice"`
	PVDividend float64 `json:"pvDividend"`
	Gamma      float64 `json:"gamma"`
	Vega       float64 `json:"vega"`
	Theta      float64 `json:"theta"`
	UndPrice   float64 `json:"undPrice"`
}

type TickOptionComputation struct {
	TickerID int64 `json:"tickerId"`
	TickType int   `json:"tickType"`
	OptionComputation
}

func (e TickOptionComputation) Route() Route {
	return data(idKey(e.TickerID), Tick{
		Type:     "OptionComputation",
		TickType: e.TickType,
		Name:     TickTypeName(e.TickType),
		Value:    e.OptionComputation,
	})
}

type TickSnapshotEnd struct {
	ReqID int64 `json:"reqId"`
}

func (e TickSnapshotEnd) Route() Route { return end(idKey(e.ReqID)) }

// DepthUpdate is the payload of both depth events.
type DepthUpdate struct {
	Position    int     `json:"position"`
	MarketMaker string  `json:"marketMaker"`
	Operation   int     `json:"operation"`
	Side        int     `json:"side"`
	Price       float64 `json:"price"`
	Size        int64   `json:"size"`
}

type UpdateMktDepth struct {
	ID        int64   `json:"id"`
	Position  int     `json:"position"`
	Operation int     `json:"operation"`
	Side      int     `json:"side"`
	Price     float64 `json:"price"`
	Size      int64   `json:"size"`
}

func (e UpdateMktDepth) Route() Route {
	return data(idKey(e.ID), DepthUpdate{
		Position:    e.Position,
		MarketMaker: "N/A",
		Operation:   e.Operation,
		Side:        e.Side,
		Price:       e.Price,
		Size:        e.Size,
	})
}

type UpdateMktDepthL2 struct {
	ID          int64   `json:"id"`
	Position    int     `json:"position"`
	MarketMaker string  `json:"marketMaker"`
	Operation   int     `json:"operation"`
	Side        int     `json:"side"`
	Price       float64 `json:"price"`
	Size        int64   `json:"size"`
}

func (e UpdateMktDepthL2) Route() Route {
	return data(idKey(e.ID), DepthUpdate{
		Position:    e.Position,
		MarketMaker: e.MarketMaker,
		Operation:   e.Operation,
		Side:        e.Side,
		Price:       e.Price,
		Size:        e.Size,
	})
}

// ScannerParameters carries the scanner XML. An empty document ends the stream.
type ScannerParameters struct {
	XML string `json:"xml"`
}

func (e ScannerParameters) Route() Route {
	if e.XML == "" {
		return end(stream(StreamScannerParameters))
	}
	return data(stream(StreamScannerParameters), e.XML)
}

type ScannerData struct {
	TickerID   int64    `json:"tickerId"`
	Rank       int      `json:"rank"`
	Contract   Contract `json:"contract"`
	Distance   string   `json:"distance"`
	Benchmark  string   `json:"benchmark"`
	Projection string   `json:"projection"`
	LegsStr    string   `json:"legsStr"`
}

func (e ScannerData) Route() Route { return data(idKey(e.TickerID), e) }

type ScannerDataEnd struct {
	TickerID int64 `json:"tickerId"`
}

func (e ScannerDataEnd) Route() Route { return end(idKey(e.TickerID)) }

type ManagedAccounts struct {
	Accounts string `json:"accountsList"`
}

func (e ManagedAccounts) Route() Route { return data(stream(StreamManagedAccounts), e.Accounts) }

// ReceiveFA carries financial advisor configuration. An empty document ends the stream.
type ReceiveFA struct {
	DataType int    `json:"faDataType"`
	XML      string `json:"xml"`
}

func (e ReceiveFA) Route() Route {
	if e.XML == "" {
		return end(stream(StreamReceiveFA))
	}
	return data(stream(StreamReceiveFA), e)
}

type AccountSummary struct {
	ReqID    int64  `json:"reqId"`
	Account  string `json:"account"`
	Tag      string `json:"tag"`
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

func (e AccountSummary) Route() Route { return data(idKey(e.ReqID), e) }

type AccountSummaryEnd struct {
	ReqID int64 `json:"reqId"`
}

func (e AccountSummaryEnd) Route() Route { return end(idKey(e.ReqID)) }

type UpdateAccountTime struct {
	Timestamp string `json:"timeStamp"`
}

func (e UpdateAccountTime) Route() Route { return data(stream(StreamAccountUpdates), e) }

type UpdateAccountValue struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Currency string `json:"currency"`
	Account  string `json:"accountName"`
}

func (e UpdateAccountValue) Route() Route { return data(stream(StreamAccountUpdates), e) }

type UpdatePortfolio struct {
	Contract      Contract `json:"contract"`
	Position      float64  `json:"position"`
	MarketPrice   float64  `json:"marketPrice"`
	MarketValue   float64  `json:"marketValue"`
	AverageCost   float64  `json:"averageCost"`
	UnrealizedPNL float64  `json:"unrealizedPNL"`
	RealizedPNL   float64  `json:"realizedPNL"`
	Account       string   `json:"accountName"`
}

func (e UpdatePortfolio) Route() Route { return data(stream(StreamAccountUpdates), e) }

// AccountDownloadEnd closes the initial account download. The updates stream
// keeps flowing afterwards.
type AccountDownloadEnd struct {
	Account string `json:"accountName"`
}

func (AccountDownloadEnd) Route() Route { return end(stream(StreamAccountUpdates)) }

type Position struct {
	Account  string   `json:"account"`
	Contract Contract `json:"contract"`
	Pos      float64  `json:"pos"`
	AvgCost  float64  `json:"avgCost"`
}

func (e Position) Route() Route { return data(stream(StreamPositions), e) }

type PositionEnd struct{}

func (PositionEnd) Route() Route { return end(stream(StreamPositions)) }

type ExecDetails struct {
	ReqID     int64     `json:"reqId"`
	Contract  Contract  `json:"contract"`
	Execution Execution `json:"exec"`
}

func (e ExecDetails) Route() Route { return data(idKey(e.ReqID), e) }

type ExecDetailsEnd struct {
	ReqID int64 `json:"reqId"`
}

func (e ExecDetailsEnd) Route() Route { return end(idKey(e.ReqID)) }

type OpenOrder struct {
	OrderID    int64      `json:"orderId"`
	Contract   Contract   `json:"contract"`
	Order      Order      `json:"order"`
	OrderState OrderState `json:"orderState"`
}

func (e OpenOrder) Route() Route { return data(stream(StreamOrders), e) }

type OpenOrderEnd struct{}

func (OpenOrderEnd) Route() Route { return end(stream(StreamOrders)) }

// NextValidID announces the next usable order id. Correlation ids are
// raised to it so placed orders never reuse one.
type NextValidID struct {
	OrderID int64 `json:"orderId"`
}

func (e NextValidID) Route() Route {
	r := data(stream(StreamOrderID), e.OrderID)
	if e.OrderID > 0 {
		r.SeedID = uint64(e.OrderID)
	}
	return r
}

type OrderStatus struct {
	ID            int64   `json:"id"`
	Status        string  `json:"status"`
	Filled        float64 `json:"filled"`
	Remaining     float64 `json:"remaining"`
	AvgFillPrice  float64 `json:"avgFillPrice"`
	PermID        int64   `json:"permId"`
	ParentID      int64   `json:"parentId"`
	LastFillPrice float64 `json:"lastFillPrice"`
	ClientID      int64   `json:"clientId"`
	WhyHeld       string  `json:"whyHeld"`
}

func (e OrderStatus) Route() Route { return data(idKey(e.ID), e) }

type CommissionReportData struct {
	Report CommissionReport `json:"commissionReport"`
}

func (e CommissionReportData) Route() Route { return data(stream(StreamCommissions), e.Report) }

type NewsBulletin struct {
	MsgID           int64  `json:"newsMsgId"`
	MsgType         int    `json:"newsMsgType"`
	Message         string `json:"newsMessage"`
	OriginatingExch string `json:"originatingExch"`
}

func (e NewsBulletin) Route() Route { return data(stream(StreamNews), e) }

type DisplayGroupList struct {
	ReqID  int64  `json:"reqId"`
	Groups string `json:"groups"`
}

func (e DisplayGroupList) Route() Route { return data(idKey(e.ReqID), e.Groups) }

type DisplayGroupUpdated struct {
	ReqID        int64  `json:"reqId"`
	ContractInfo string `json:"contractInfo"`
}

func (e DisplayGroupUpdated) Route() Route { return data(idKey(e.ReqID), e.ContractInfo) }

