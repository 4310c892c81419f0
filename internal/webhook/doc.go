// Package webhook delivers relayed hardware events to the cloud persistence
// endpoint.
//
// Delivery is detached from the relay path: the hub hands events to a
// Gateway, whose worker pool posts them to the configured HTTP endpoint with
// bounded retries. A dead or slow endpoint costs queued events at worst,
// never relay latency.
//
// Retry delays grow linearly with the attempt number: the wait before
// attempt n+1 is n times the configured base delay. After the final attempt
// fails the event is logged at error level and dropped; there is no durable
// redelivery queue.
package webhook
