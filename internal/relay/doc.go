// Package relay implements the multi-tenant message relay at the heart of
// GymLink: tenant-isolated broadcast groups, bridge presence tracking, and
// bidirectional forwarding between hardware bridges and admin dashboards.
//
// # Tenant isolation
//
// Every connection belongs to exactly one gym. The hub keys broadcast groups
// by gym id, and a message received from a group member is only ever
// delivered to other members of the same group - cross-tenant delivery is
// impossible by construction.
//
// # Presence
//
// Each gym has at most one tracked bridge at a time. A second bridge
// connecting for the same gym takes over presence; the previous connection
// is not closed and no client-visible displacement notice is sent, but the
// takeover is logged with both connection ids.
//
// # Message flow
//
//	admin  --cloud-command-->  hub  -->  bridges (and other admins) in group
//	bridge --hardware-event--> hub  -->  admins (and other bridges) in group
//	                                \->  persistence gateway (detached)
//	                                \->  local audit trail (detached)
//
// Hardware event persistence is fully decoupled from relay delivery: a slow
// or failing cloud endpoint never delays group broadcast.
//
// # Concurrency
//
// All shared state (groups, presence) is guarded by the hub's and store's
// own locks; connection read/write pumps follow the one-reader/one-writer
// model required by gorilla/websocket.
package relay
