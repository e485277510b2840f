package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo keeps the SHA-256 hashes of issued refresh tokens.  Plain
// tokens never reach the database.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a newly issued refresh token for a client.
func (r *TokenRepo) StoreRefresh(ctx context.Context, clientID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (client_id, token_hash, expires_at) VALUES (?,?,?)",
		clientID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh resolves a token hash to its client.  The token must be
// unrevoked and unexpired and the client still active.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var clientID uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT t.client_id FROM refresh_tokens t
JOIN clients c ON c.id = t.client_id
WHERE t.token_hash=? AND t.revoked_at IS NULL AND t.expires_at > ? AND c.is_active = 1
LIMIT 1`,
		tokenHash, time.Now().UTC()).Scan(&clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRefreshInvalid
	}
	return clientID, err
}

// RevokeByHash ends a single session.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForClient ends every session of a client.
func (r *TokenRepo) RevokeAllForClient(ctx context.Context, clientID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE client_id=? AND revoked_at IS NULL",
		clientID)
	return err
}
