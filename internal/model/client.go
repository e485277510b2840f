package model

import "time"

// Role names stored in clients.role and carried in the JWT "role" claim.
const (
	RoleClient = "CLIENT"
	RoleAdmin  = "ADMIN"
)

// Client represents a hotel guest account as stored in the `clients`
// table. Each field corresponds to a column in the database. The
// password hash is never serialised; handlers return ClientView instead.
//
// Fields:
//	ID           – primary key identifier of the client.
//	Name         – full name shown on reservations.
//	Email        – unique, lower-cased email address.
//	Phone        – contact phone number.
//	PasswordHash – bcrypt hashed password.
//	Role         – CLIENT or ADMIN.
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type Client struct {
	ID           uint64    // clients.id
	Name         string    // clients.name
	Email        string    // clients.email
	Phone        string    // clients.phone
	PasswordHash string    // clients.password_hash
	Role         string    // clients.role
	IsActive     bool      // clients.is_active
	CreatedAt    time.Time // clients.created_at
	UpdatedAt    time.Time // clients.updated_at
}

// ClientView is the public JSON shape of a client.
type ClientView struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// View strips the credential fields from c.
func (c Client) View() ClientView {
	return ClientView{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone, Role: c.Role, CreatedAt: c.CreatedAt}
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a client and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	ClientID  uint64     // refresh_tokens.client_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
