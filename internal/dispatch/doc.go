// Package dispatch turns the single event stream of a gateway connection into
// independently addressable requests.
//
// Inbound events carry either a numeric correlation id or a fixed stream name
// (see Key). A Singleton request is addressed by a stream name and shared by
// every caller with the same signature; an Instance request gets a fresh id per
// call. Handlers are fixed when a subscriber is created and the call is then
// transmitted with Send. Every request ends exactly once: completed by the
// gateway or its timeout, cancelled by a caller, or failed by an error or a
// disconnect. After that the request is gone from every table and later
// events for its key are dropped.
package dispatch
