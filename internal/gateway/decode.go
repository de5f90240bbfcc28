package gateway

import (
	"encoding/json"

	"ibgw/pkg/exception"

	"github.com/yanun0323/errors"
)

type decoder func(raw json.RawMessage) (Event, error)

func decodeAs[T Event]() decoder {
	return func(raw json.RawMessage) (Event, error) {
		var ev T
		if len(raw) != 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &ev); err != nil {
				return nil, err
			}
		}
		return ev, nil
	}
}

var decoders = map[string]decoder{
	"connected":             decodeAs[Connected](),
	"disconnected":          decodeAs[Disconnected](),
	"error":                 decodeAs[Error](),
	"currentTime":           decodeAs[CurrentTime](),
	"contractDetails":       decodeAs[ContractDetailsData](),
	"bondContractDetails":   decodeAs[BondContractDetails](),
	"contractDetailsEnd":    decodeAs[ContractDetailsEnd](),
	"fundamentalData":       decodeAs[FundamentalData](),
	"historicalData":        decodeAs[HistoricalData](),
	"realtimeBar":           decodeAs[RealtimeBar](),
	"tickPrice":             decodeAs[TickPrice](),
	"tickSize":              decodeAs[TickSize](),
	"tickString":            decodeAs[TickString](),
	"tickGeneric":           decodeAs[TickGeneric](),
	"tickEFP":               decodeAs[TickEFP](),
	"tickOptionComputation": decodeAs[TickOptionComputation](),
	"tickSnapshotEnd":       decodeAs[TickSnapshotEnd](),
	"updateMktDepth":        decodeAs[UpdateMktDepth](),
	"updateMktDepthL2":      decodeAs[UpdateMktDepthL2](),
	"scannerParameters":     decodeAs[ScannerParameters](),
	"scannerData":           decodeAs[ScannerData](),
	"scannerDataEnd":        decodeAs[ScannerDataEnd](),
	"managedAccounts":       decodeAs[ManagedAccounts](),
	"receiveFA":             decodeAs[ReceiveFA](),
	"accountSummary":        decodeAs[AccountSummary](),
	"accountSummaryEnd":     decodeAs[AccountSummaryEnd](),
	"updateAccountTime":     decodeAs[UpdateAccountTime](),
	"updateAccountValue":    decodeAs[UpdateAccountValue](),
	"updatePortfolio":       decodeAs[UpdatePortfolio](),
	"accountDownloadEnd":    decodeAs[AccountDownloadEnd](),
	"position":              decodeAs[Position](),
	"positionEnd":           decodeAs[PositionEnd](),
	"execDetails":           decodeAs[ExecDetails](),
	"execDetailsEnd":        decodeAs[ExecDetailsEnd](),
	"openOrder":             decodeAs[OpenOrder](),
	"openOrderEnd":          decodeAs[OpenOrderEnd](),
	"nextValidId":           decodeAs[NextValidID](),
	"orderStatus":           decodeAs[OrderStatus](),
	"commissionReport":      decodeAs[CommissionReportData](),
	"updateNewsBulletin":    decodeAs[NewsBulletin](),
	"displayGroupList":      decodeAs[DisplayGroupList](),
	"displayGroupUpdated":   decodeAs[DisplayGroupUpdated](),
}

// Decode builds the event named name from its JSON arguments.
func Decode(name string, args json.RawMessage) (Event, error) {
	dec, ok := decoders[name]
	if !ok {
		return nil, errors.Wrap(exception.ErrUnknownEvent, name)
	}
	ev, err := dec(args)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	return ev, nil
}
