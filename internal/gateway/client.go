package gateway

// Client transmits outbound calls to the gateway. Args are the call's
// positional arguments, correlation id first for id-addressed calls.
type Client interface {
	Call(method string, args ...any) error
}

// ClientFunc adapts a function to Client.
type ClientFunc func(method string, args ...any) error

func (f ClientFunc) Call(method string, args ...any) error {
	return f(method, args...)
}

// Outbound method names.
const (
	MethodReqCurrentTime             = "reqCurrentTime"
	MethodReqContractDetails         = "reqContractDetails"
	MethodReqFundamentalData         = "reqFundamentalData"
	MethodReqHistoricalData          = "reqHistoricalData"
	MethodReqRealTimeBars            = "reqRealTimeBars"
	MethodCancelRealTimeBars         = "cancelRealTimeBars"
	MethodReqMktData                 = "reqMktData"
	MethodCancelMktData              = "cancelMktData"
	MethodReqMktDepth                = "reqMktDepth"
	MethodCancelMktDepth             = "cancelMktDepth"
	MethodReqScannerParameters       = "reqScannerParameters"
	MethodReqScannerSubscription     = "reqScannerSubscription"
	MethodCancelScannerSubscription  = "cancelScannerSubscription"
	MethodReqAccountSummary          = "reqAccountSummary"
	MethodCancelAccountSummary       = "cancelAccountSummary"
	MethodReqAccountUpdates          = "reqAccountUpdates"
	MethodReqExecutions              = "reqExecutions"
	MethodReqOpenOrders              = "reqOpenOrders"
	MethodReqAllOpenOrders           = "reqAllOpenOrders"
	MethodReqAutoOpenOrders          = "reqAutoOpenOrders"
	MethodReqGlobalCancel            = "reqGlobalCancel"
	MethodReqPositions               = "reqPositions"
	MethodCancelPositions            = "cancelPositions"
	MethodReqIDs                     = "reqIds"
	MethodPlaceOrder                 = "placeOrder"
	MethodCancelOrder                = "cancelOrder"
	MethodExerciseOptions            = "exerciseOptions"
	MethodReqNewsBulletins           = "reqNewsBulletins"
	MethodCancelNewsBulletins        = "cancelNewsBulletins"
	MethodQueryDisplayGroups         = "queryDisplayGroups"
	MethodSubscribeToGroupEvents     = "subscribeToGroupEvents"
	MethodUnsubscribeFromGroupEvents = "unsubscribeFromGroupEvents"
	MethodUpdateDisplayGroup         = "updateDisplayGroup"
)
