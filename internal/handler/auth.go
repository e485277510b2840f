package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hotelreserva/hotel-booking/internal/config"
	"github.com/hotelreserva/hotel-booking/internal/middleware"
	"github.com/hotelreserva/hotel-booking/internal/model"
	"github.com/hotelreserva/hotel-booking/internal/repository"
	"github.com/hotelreserva/hotel-booking/internal/utils"
)

// ClientStore is the client persistence used by the auth and client
// handlers.  *repository.ClientRepo implements it.
type ClientStore interface {
	Create(ctx context.Context, c model.Client, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.Client, error)
	GetByID(ctx context.Context, id uint64) (model.Client, error)
	List(ctx context.Context) ([]model.Client, error)
	UpdateProfile(ctx context.Context, id uint64, name, email, phone string) (model.Client, error)
	Delete(ctx context.Context, id uint64) error
}

// TokenStore keeps refresh-token hashes.  *repository.TokenRepo implements it.
type TokenStore interface {
	StoreRefresh(ctx context.Context, clientID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForClient(ctx context.Context, clientID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Clients ClientStore
	Tokens  TokenStore
}

func NewAuthHandler(cfg config.Config, clients ClientStore, tokens TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Clients: clients, Tokens: tokens}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type profileReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	Client  model.ClientView `json:"client"`
	Access  tokenPart        `json:"access"`
	Refresh tokenPart        `json:"refresh"`
}

// Register creates a CLIENT account and returns a token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return badRequest(c, "name, email and password are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return badRequest(c, "invalid email")
	}
	if err := utils.CheckPassword(req.Password); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	client := model.Client{Name: req.Name, Email: req.Email, Phone: req.Phone, Role: model.RoleClient}
	id, err := h.Clients.Create(ctx, client, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create client failed"})
	}
	client.ID = id
	client.CreatedAt = time.Now().UTC()
	return h.issue(ctx, c, http.StatusCreated, client)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	client, err := h.Clients.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !client.IsActive || !utils.VerifyPassword(client.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return h.issue(ctx, c, http.StatusOK, client)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	clientID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	client, err := h.Clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load client failed"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke refresh failed"})
	}
	return h.issue(ctx, c, http.StatusOK, client)
}

// Logout revokes the refresh token in the body, or every session of the
// bearer when no token is given.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return badRequest(c, "provide Authorization header or refresh_token")
	}
	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := claims.ClientID()
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
	}
	if err := h.Tokens.RevokeAllForClient(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated client's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.ClientID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	client, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load client failed"})
	}
	return c.JSON(http.StatusOK, client.View())
}

// UpdateMe changes the authenticated client's name, email and phone.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	id, ok := middleware.ClientID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || strings.TrimSpace(req.Email) == "" {
		return badRequest(c, "name and email are required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return badRequest(c, "invalid email")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	client, err := h.Clients.UpdateProfile(ctx, id, req.Name, req.Email, req.Phone)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update client failed"})
	}
	return c.JSON(http.StatusOK, client.View())
}

func (h *AuthHandler) issue(ctx context.Context, c echo.Context, status int, client model.Client) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, client.ID, client.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, client.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	return c.JSON(status, authResp{
		Client:  client.View(),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}
