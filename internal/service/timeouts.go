package service

import "time"

// Timeouts bounds each call family from send to its first end. Zero lets the
// call run until it is ended, cancelled or swept by a disconnect.
type Timeouts struct {
	CurrentTime         time.Duration
	ContractDetails     time.Duration
	FundamentalData     time.Duration
	HistoricalData      time.Duration
	RealTimeBars        time.Duration
	MktData             time.Duration
	MktDepth            time.Duration
	ScannerParameters   time.Duration
	ScannerSubscription time.Duration
	AccountSummary      time.Duration
	AccountUpdates      time.Duration
	Executions          time.Duration
	OpenOrders          time.Duration
	Positions           time.Duration
	OrderIDs            time.Duration
	PlaceOrder          time.Duration
	ExerciseOptions     time.Duration
	DisplayGroups       time.Duration
}

// DefaultTimeouts returns the timeouts used when nothing is configured.
// Subscriptions that stream without a terminator have none.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		CurrentTime:       time.Second,
		ContractDetails:   5 * time.Second,
		FundamentalData:   10 * time.Second,
		HistoricalData:    10 * time.Second,
		MktData:           5 * time.Second,
		ScannerParameters: 5 * time.Second,
		AccountSummary:    5 * time.Second,
		Executions:        5 * time.Second,
		OpenOrders:        5 * time.Second,
		Positions:         5 * time.Second,
		OrderIDs:          time.Second,
		DisplayGroups:     5 * time.Second,
	}
}
