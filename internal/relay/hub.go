package relay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gymlink/gymlink-relay/internal/infrastructure/logging"
)

// recordTimeout bounds detached audit-trail writes so a wedged database
// cannot accumulate goroutines.
const recordTimeout = 5 * time.Second

// EventSink accepts hardware events for asynchronous delivery to the cloud
// persistence endpoint. Submit must never block the caller.
type EventSink interface {
	Submit(ev HardwareEvent)
}

// EventRecorder persists hardware events to the local audit trail.
type EventRecorder interface {
	Record(ctx context.Context, ev HardwareEvent) error
}

// Fanout republishes relay traffic onto an external message bus for
// integrations outside the websocket estate.
type Fanout interface {
	PublishEvent(gymID string, payload []byte) error
	PublishPresence(gymID string, online bool) error
}

// Telemetry records relay throughput metrics.
type Telemetry interface {
	WriteRelayMetric(gymID, measurement string, value float64)
}

// HubDeps carries the hub's dependencies. Logger is required; the rest are
// optional integrations and may be nil.
type HubDeps struct {
	Logger    *logging.Logger
	Sink      EventSink
	Recorder  EventRecorder
	Fanout    Fanout
	Telemetry Telemetry
}

// Hub manages websocket connections grouped by gym and relays messages
// between members of the same group.
type Hub struct {
	logger    *logging.Logger
	presence  *PresenceStore
	sink      EventSink
	recorder  EventRecorder
	fanout    Fanout
	telemetry Telemetry

	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
}

// NewHub creates a hub with the given dependencies.
func NewHub(deps HubDeps) *Hub {
	return &Hub{
		logger:    deps.Logger,
		presence:  NewPresenceStore(),
		sink:      deps.Sink,
		recorder:  deps.Recorder,
		fanout:    deps.Fanout,
		telemetry: deps.Telemetry,
		groups:    make(map[string]map[*Client]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to its gym's group.
//
// For bridges this also claims presence for the gym and broadcasts an
// ONLINE status to the whole group. If another bridge was already tracked
// for the gym it is silently displaced; the takeover is logged but no
// client is notified and the old connection is left open.
//
// Admins receive a one-off bridge-status snapshot reflecting the gym's
// current presence so dashboards render correct state immediately.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	group, ok := h.groups[c.gymID]
	if !ok {
		group = make(map[*Client]struct{})
		h.groups[c.gymID] = group
	}
	group[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("client connected",
		"conn_id", c.id, "gym_id", c.gymID, "role", c.role, "group_size", h.GroupSize(c.gymID))

	switch c.role {
	case RoleBridge:
		if displaced := h.presence.Set(c.gymID, c.id); displaced != "" {
			h.logger.Warn("bridge presence taken over",
				"gym_id", c.gymID, "previous_conn_id", displaced, "conn_id", c.id)
		}
		h.broadcastStatus(c.gymID, true)
		h.publishPresence(c.gymID, true)
	case RoleAdmin:
		data, err := EncodeBridgeStatus(h.presence.Online(c.gymID))
		if err != nil {
			h.logger.Error("failed to encode presence snapshot", "error", err)
			return
		}
		c.trySend(data)
	}
}

// Unregister removes a client from its group.
// Only the goroutine that successfully removes the client from the map
// closes the send channel, preventing double-close panics during shutdown.
//
// When the departing client is the gym's tracked bridge, an OFFLINE status
// is broadcast to the remaining group members. A bridge whose presence was
// already taken over by a newer connection leaves silently.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	group, ok := h.groups[c.gymID]
	_, existed := group[c]
	if existed {
		delete(group, c)
		if ok && len(group) == 0 {
			delete(h.groups, c.gymID)
		}
	}
	h.mu.Unlock()

	if existed {
		close(c.send)
	}

	h.logger.Info("client disconnected",
		"conn_id", c.id, "gym_id", c.gymID, "role", c.role, "group_size", h.GroupSize(c.gymID))

	if c.role == RoleBridge && h.presence.Remove(c.gymID, c.id) {
		h.broadcastStatus(c.gymID, false)
		h.publishPresence(c.gymID, false)
	}
}

// HandleMessage processes one inbound frame from a client. Valid messages
// are forwarded verbatim to every other member of the sender's group;
// invalid ones are answered with an error frame to the sender only.
func (h *Hub) HandleMessage(c *Client, data []byte) {
	env, err := DecodeInbound(data)
	if err != nil {
		h.logger.Debug("rejected inbound message",
			"conn_id", c.id, "gym_id", c.gymID, "error", err)
		c.sendError(rejectionMessage(err))
		return
	}

	h.broadcast(c.gymID, data, c)

	switch env.Type {
	case MsgTypeCloudCommand:
		if h.telemetry != nil {
			h.telemetry.WriteRelayMetric(c.gymID, "commands_relayed", 1)
		}
	case MsgTypeHardwareEvent:
		ev, err := env.DecodeHardwareEvent()
		if err != nil {
			// DecodeInbound already validated the payload; unreachable
			// short of a decode bug.
			h.logger.Error("hardware event decode failed after validation", "error", err)
			return
		}
		ev.GymID = c.gymID
		if ev.Timestamp.IsZero() {
			ev.Timestamp = time.Now().UTC()
		}
		h.dispatchEvent(ev, data)
	}
}

// dispatchEvent fans a validated hardware event out to the detached
// consumers: cloud persistence, local audit trail, bus republish and
// telemetry. None of these paths can delay or fail relay delivery, which
// has already happened by the time this runs.
func (h *Hub) dispatchEvent(ev HardwareEvent, raw []byte) {
	if h.sink != nil {
		h.sink.Submit(ev)
	}

	if h.recorder != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := h.recorder.Record(ctx, ev); err != nil {
				h.logger.Warn("event audit write failed",
					"gym_id", ev.GymID, "event_type", ev.Type, "error", err)
			}
		}()
	}

	if h.fanout != nil {
		// Detached like the audit write: the bus client blocks on broker
		// acknowledgment, and a slow broker must not stall the read loop.
		go func() {
			if err := h.fanout.PublishEvent(ev.GymID, raw); err != nil {
				h.logger.Warn("event bus publish failed", "gym_id", ev.GymID, "error", err)
			}
		}()
	}

	if h.telemetry != nil {
		h.telemetry.WriteRelayMetric(ev.GymID, "events_relayed", 1)
	}
}

// broadcast delivers data to every member of gymID's group except the
// sender. Pass a nil sender to reach the whole group.
// Lock ordering: the group is snapshotted under the hub lock, which is
// released before any per-client sends.
func (h *Hub) broadcast(gymID string, data []byte, except *Client) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.groups[gymID]))
	for client := range h.groups[gymID] {
		if client != except {
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.trySend(data)
	}

	if len(clients) > 0 {
		h.logger.Debug("message relayed", "gym_id", gymID, "recipients", len(clients))
	}
}

// broadcastStatus announces a bridge presence change to the whole group.
func (h *Hub) broadcastStatus(gymID string, online bool) {
	data, err := EncodeBridgeStatus(online)
	if err != nil {
		h.logger.Error("failed to encode bridge status", "error", err)
		return
	}
	h.broadcast(gymID, data, nil)
}

// publishPresence mirrors a presence change onto the optional integrations.
func (h *Hub) publishPresence(gymID string, online bool) {
	if h.fanout != nil {
		if err := h.fanout.PublishPresence(gymID, online); err != nil {
			h.logger.Warn("presence bus publish failed", "gym_id", gymID, "error", err)
		}
	}
	if h.telemetry != nil {
		value := 0.0
		if online {
			value = 1.0
		}
		h.telemetry.WriteRelayMetric(gymID, "bridge_online", value)
	}
}

// Presence exposes the hub's presence store, primarily for handshake-time
// snapshots and health reporting.
func (h *Hub) Presence() *PresenceStore {
	return h.presence
}

// GroupSize returns the number of clients connected for a gym.
func (h *Hub) GroupSize(gymID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[gymID])
}

// ClientCount returns the total number of connected clients across all gyms.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, group := range h.groups {
		total += len(group)
	}
	return total
}

// closeAll disconnects all clients and closes their send channels
// so writePump goroutines can exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for gymID, group := range h.groups {
		for client := range group {
			close(client.send)
			if client.conn != nil {
				client.conn.Close()
			}
		}
		delete(h.groups, gymID)
	}
}

// rejectionMessage turns a validation error into the client-facing message
// carried by the error frame. The package prefix is internal detail and is
// stripped before the text goes over the wire.
func rejectionMessage(err error) string {
	if errors.Is(err, ErrMalformedMessage) || errors.Is(err, ErrUnknownMessageType) {
		return strings.TrimPrefix(err.Error(), "relay: ")
	}
	return "message rejected"
}
