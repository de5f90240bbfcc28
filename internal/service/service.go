package service

import (
	"time"

	"ibgw/internal/dispatch"
	"ibgw/internal/gateway"
)

// Service is the call catalogue of a gateway connection. Every method
// returns the caller's subscription in the Created state; transmit it with
// Send once handlers are in place.
type Service struct {
	d        *dispatch.Dispatch
	client   gateway.Client
	timeouts Timeouts
}

func New(d *dispatch.Dispatch, client gateway.Client, timeouts Timeouts) *Service {
	return &Service{
		d:        d,
		client:   client,
		timeouts: timeouts,
	}
}

// Dispatch returns the dispatch the service allocates requests on.
func (s *Service) Dispatch() *dispatch.Dispatch {
	return s.d
}

// System streams connection level notices.
func (s *Service) System(h dispatch.Handlers) *dispatch.Subscription {
	return s.stream(gateway.StreamSystem, h)
}

func (s *Service) CurrentTime(h dispatch.Handlers) *dispatch.Subscription {
	return s.singleton(gateway.StreamCurrentTime, gateway.MethodReqCurrentTime, "", s.timeouts.CurrentTime, h)
}

func (s *Service) ContractDetails(contract gateway.Contract, h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodReqContractDetails, "", s.timeouts.ContractDetails, h, contract)
}

func (s *Service) FundamentalData(contract gateway.Contract, reportType string, h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodReqFundamentalData, "", s.timeouts.FundamentalData, h, contract, reportType)
}

// HistoricalData requests bars ending at endDateTime.
func (s *Service) HistoricalData(contract gateway.Contract, endDateTime, duration, barSize, whatToShow string, useRTH bool, formatDate int, h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodReqHistoricalData, "", s.timeouts.HistoricalData, h,
		contract, endDateTime, duration, barSize, whatToShow, rth(useRTH), formatDate)
}

func (s *Service) RealTimeBars(contract gateway.Contract, barSize int, whatToShow string, useRTH bool, h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodReqRealTimeBars, gateway.MethodCancelRealTimeBars, s.timeouts.RealTimeBars, h,
		contract, barSize, whatToShow, useRTH)
}

// MktData streams ticks. The configured timeout applies to snapshots only,
// which end with a snapshot terminator.
func (s *Service) MktData(contract gateway.Contract, genericTicks string, snapshot bool, h dispatch.Handlers) *dispatch.Subscription {
	var timeout time.Duration
	if snapshot {
		timeout = s.timeouts.MktData
	}
	return s.instance(gateway.MethodReqMktData, gateway.MethodCancelMktData, timeout, h, contract, genericTicks, snapshot)
}

func (s *Service) MktDepth(contract gateway.Contract, rows int, h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodReqMktDepth, gateway.MethodCancelMktDepth, s.timeouts.MktDepth, h, contract, rows)
}

func (s *Service) ScannerParameters(h dispatch.Handlers) *dispatch.Subscription {
	return s.singleton(gateway.StreamScannerParameters, gateway.MethodReqScannerParameters, "", s.timeouts.ScannerParameters, h)
}

func (s *Service) ScannerSubscription(sub gateway.ScannerSubscription, h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodReqScannerSubscription, gateway.MethodCancelScannerSubscription, s.timeouts.ScannerSubscription, h, sub)
}

// AccountSummary requests tags for an account group.
func (s *Service) AccountSummary(group, tags string, h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodReqAccountSummary, gateway.MethodCancelAccountSummary, s.timeouts.AccountSummary, h, group, tags)
}

// AccountUpdates streams values and portfolio of one account. The gateway
// runs a single account stream at a time, so a call for another account
// supersedes the running one. The stream outlives its end until the end is
// released.
func (s *Service) AccountUpdates(account string, h dispatch.Handlers) *dispatch.Subscription {
	return s.d.Singleton(dispatch.Call{
		Signature: Signature(gateway.MethodReqAccountUpdates, account),
		Key:       dispatch.Symbolic(gateway.StreamAccountUpdates),
		Send: func(*dispatch.Request) error {
			return s.client.Call(gateway.MethodReqAccountUpdates, true, account)
		},
		Cancel: func(*dispatch.Request) error {
			return s.client.Call(gateway.MethodReqAccountUpdates, false, account)
		},
		Timeout:   s.timeouts.AccountUpdates,
		KeepAlive: true,
	}, h)
}

func (s *Service) Executions(filter gateway.ExecutionFilter, h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodReqExecutions, "", s.timeouts.Executions, h, filter)
}

// Commissions streams commission reports of executions.
func (s *Service) Commissions(h dispatch.Handlers) *dispatch.Subscription {
	return s.stream(gateway.StreamCommissions, h)
}

// OpenOrders lists orders of this client.
func (s *Service) OpenOrders(h dispatch.Handlers) *dispatch.Subscription {
	return s.singleton(gateway.StreamOrders, gateway.MethodReqOpenOrders, "", s.timeouts.OpenOrders, h)
}

// AllOpenOrders lists orders of every client.
func (s *Service) AllOpenOrders(h dispatch.Handlers) *dispatch.Subscription {
	return s.singleton(gateway.StreamOrders, gateway.MethodReqAllOpenOrders, "", s.timeouts.OpenOrders, h)
}

func (s *Service) Positions(h dispatch.Handlers) *dispatch.Subscription {
	return s.singleton(gateway.StreamPositions, gateway.MethodReqPositions, gateway.MethodCancelPositions, s.timeouts.Positions, h)
}

// OrderIDs asks for the next valid order id.
func (s *Service) OrderIDs(count int, h dispatch.Handlers) *dispatch.Subscription {
	return s.singleton(gateway.StreamOrderID, gateway.MethodReqIDs, "", s.timeouts.OrderIDs, h, count)
}

// PlaceOrder transmits an order under a fresh id and streams its status.
// Cancelling the request cancels the order.
func (s *Service) PlaceOrder(contract gateway.Contract, order gateway.Order, h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodPlaceOrder, gateway.MethodCancelOrder, s.timeouts.PlaceOrder, h, contract, order)
}

func (s *Service) ExerciseOptions(contract gateway.Contract, action, quantity int, account string, override bool, h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodExerciseOptions, gateway.MethodCancelOrder, s.timeouts.ExerciseOptions, h,
		contract, action, quantity, account, override)
}

func (s *Service) NewsBulletins(allMessages bool, h dispatch.Handlers) *dispatch.Subscription {
	return s.singleton(gateway.StreamNews, gateway.MethodReqNewsBulletins, gateway.MethodCancelNewsBulletins, 0, h, allMessages)
}

func (s *Service) QueryDisplayGroups(h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodQueryDisplayGroups, "", s.timeouts.DisplayGroups, h)
}

func (s *Service) SubscribeToGroupEvents(groupID int, h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodSubscribeToGroupEvents, gateway.MethodUnsubscribeFromGroupEvents, 0, h, groupID)
}

func (s *Service) UpdateDisplayGroup(contractInfo string, h dispatch.Handlers) *dispatch.Subscription {
	return s.instance(gateway.MethodUpdateDisplayGroup, "", s.timeouts.DisplayGroups, h, contractInfo)
}

// AutoOpenOrders binds orders placed in the trader workstation to this client.
func (s *Service) AutoOpenOrders(autoBind bool) error {
	return s.client.Call(gateway.MethodReqAutoOpenOrders, autoBind)
}

// GlobalCancel cancels every open order.
func (s *Service) GlobalCancel() error {
	return s.client.Call(gateway.MethodReqGlobalCancel)
}

// stream joins a feed the gateway pushes unasked. Sending it transmits nothing.
func (s *Service) stream(name string, h dispatch.Handlers) *dispatch.Subscription {
	return s.d.Singleton(dispatch.Call{
		Signature: Signature(name),
		Key:       dispatch.Symbolic(name),
		Send:      func(*dispatch.Request) error { return nil },
	}, h)
}

func (s *Service) singleton(stream, method, cancel string, timeout time.Duration, h dispatch.Handlers, args ...any) *dispatch.Subscription {
	call := dispatch.Call{
		Signature: Signature(method, args...),
		Key:       dispatch.Symbolic(stream),
		Send: func(*dispatch.Request) error {
			return s.client.Call(method, args...)
		},
		Timeout: timeout,
	}
	if cancel != "" {
		call.Cancel = func(*dispatch.Request) error {
			return s.client.Call(cancel)
		}
	}
	return s.d.Singleton(call, h)
}

func (s *Service) instance(method, cancel string, timeout time.Duration, h dispatch.Handlers, args ...any) *dispatch.Subscription {
	call := dispatch.Call{
		Signature: Signature(method, args...),
		Send: func(r *dispatch.Request) error {
			return s.client.Call(method, append([]any{r.ID()}, args...)...)
		},
		Timeout: timeout,
	}
	if cancel != "" {
		call.Cancel = func(r *dispatch.Request) error {
			return s.client.Call(cancel, r.ID())
		}
	}
	return s.d.Instance(call, h)
}

func rth(useRTH bool) int {
	if useRTH {
		return 1
	}
	return 0
}
