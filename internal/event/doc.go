// Package event provides the local audit trail for relayed hardware events.
//
// Every hardware event forwarded by the relay is also recorded in SQLite,
// giving operators a queryable history per gym that survives cloud endpoint
// outages. Writes happen on a detached path and never gate relay delivery.
package event
