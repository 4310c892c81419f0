package relay

import "crypto/subtle"

// Role identifies which side of the relay a connection sits on.
type Role string

const (
	// RoleBridge is the on-premises hardware bridge for a gym.
	RoleBridge Role = "BRIDGE"

	// RoleAdmin is a dashboard or other cloud-side consumer.
	RoleAdmin Role = "ADMIN"
)

// ParseRole maps the handshake's declared connection type onto a Role.
// Only the exact string "BRIDGE" yields RoleBridge; anything else is
// treated as an admin connection.
func ParseRole(s string) Role {
	if s == string(RoleBridge) {
		return RoleBridge
	}
	return RoleAdmin
}

// Credentials carries the identification presented during the websocket
// handshake.
type Credentials struct {
	GymID  string
	Secret string
	Role   Role
}

// Authenticator validates handshake credentials against the single shared
// admin secret.
type Authenticator struct {
	adminSecret []byte
}

// NewAuthenticator creates an Authenticator for the given admin secret.
// Configuration validation guarantees the secret is non-empty by the time
// this is called.
func NewAuthenticator(adminSecret string) *Authenticator {
	return &Authenticator{adminSecret: []byte(adminSecret)}
}

// Authenticate checks the presented credentials.
//
// Returns:
//   - ErrBadSecret if the secret does not match
//   - ErrMissingTenant if no gym id was supplied
//   - nil when the handshake is acceptable
func (a *Authenticator) Authenticate(c Credentials) error {
	if err := a.VerifySecret(c.Secret); err != nil {
		return err
	}
	if c.GymID == "" {
		return ErrMissingTenant
	}
	return nil
}

// VerifySecret checks a bare secret against the configured admin secret.
// The comparison is constant-time to avoid leaking prefix length through
// response timing.
func (a *Authenticator) VerifySecret(secret string) error {
	if subtle.ConstantTimeCompare([]byte(secret), a.adminSecret) != 1 {
		return ErrBadSecret
	}
	return nil
}
