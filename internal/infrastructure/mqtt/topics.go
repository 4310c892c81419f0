package mqtt

import "fmt"

// Topic structure for GymLink fan-out:
//
//	gymlink/tenant/{gymId}/events    - relayed hardware events, verbatim
//	gymlink/tenant/{gymId}/presence  - bridge ONLINE/OFFLINE transitions (retained)
//	gymlink/system/status            - relay online/offline status (retained, LWT)
//
// Tenant isolation carries over to the broker: integrations subscribe to
// their own gym's subtree and broker ACLs can enforce the boundary.

const topicPrefix = "gymlink"

// Topics provides topic construction helpers.
type Topics struct{}

// TenantEvents returns the event fan-out topic for a gym.
func (Topics) TenantEvents(gymID string) string {
	return fmt.Sprintf("%s/tenant/%s/events", topicPrefix, gymID)
}

// TenantPresence returns the bridge presence topic for a gym.
func (Topics) TenantPresence(gymID string) string {
	return fmt.Sprintf("%s/tenant/%s/presence", topicPrefix, gymID)
}

// SystemStatus returns the relay's own status topic.
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", topicPrefix)
}
