// Package gateway is the single path through which budgetbuddy talks to PostgreSQL.
//
// A Gateway owns one connection pool at a time. Statements are retried on
// connectivity failures with a short exponential backoff, classified into the
// error kinds of pkg/budgetbuddy, and timed for slow-query logging.
//
// When the server goes away the gateway rebuilds its pool in the background:
//
//	Healthy --connection lost--> Unhealthy --schedule--> ReconnectScheduled
//	ReconnectScheduled --timer--> rebuild + smoke test --ok--> Healthy
//	                                                   --fail--> ReconnectScheduled | PermanentlyFailed
//
// All state transitions happen on one event-loop goroutine; callers only
// post events and read an atomic snapshot.
package gateway
