package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hotelreserva/hotel-booking/internal/model"
	"github.com/hotelreserva/hotel-booking/internal/utils"
)

type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

const clientColumns = "id,name,email,phone,password_hash,role,is_active,created_at,updated_at"

func scanClient(row rowScanner) (model.Client, error) {
	var c model.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.PasswordHash, &c.Role, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create hashes the password, inserts the client and returns its ID.
func (r *ClientRepo) Create(ctx context.Context, c model.Client, password string, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO clients (name, email, phone, password_hash, role) VALUES (?,?,?,?,?)",
		c.Name, email, c.Phone, hash, c.Role)
	if err != nil {
		if isMySQLError(err, mysqlDuplicateEntry) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a client by normalized email.
func (r *ClientRepo) GetByEmail(ctx context.Context, email string) (model.Client, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanClient(r.DB.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE email=? LIMIT 1", email))
}

// GetByID fetches a client by id.
func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (model.Client, error) {
	return scanClient(r.DB.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id=? LIMIT 1", id))
}

// List returns all clients, newest first.
func (r *ClientRepo) List(ctx context.Context) ([]model.Client, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+clientColumns+" FROM clients ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateProfile changes name, email and phone.
func (r *ClientRepo) UpdateProfile(ctx context.Context, id uint64, name, email, phone string) (model.Client, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE clients SET name=?, email=?, phone=? WHERE id=?", name, email, phone, id)
	if err != nil {
		if isMySQLError(err, mysqlDuplicateEntry) {
			return model.Client{}, ErrEmailExists
		}
		return model.Client{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a client; their reservations and refresh tokens cascade.
func (r *ClientRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM clients WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}
