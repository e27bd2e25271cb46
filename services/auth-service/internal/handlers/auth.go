package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/salonbook/salonbook/libs/auth"
	"github.com/salonbook/salonbook/libs/domain"
	"github.com/salonbook/salonbook/libs/httpx"
	"github.com/salonbook/salonbook/services/auth-service/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// Headers set by the gateway after it has verified the caller's token.
const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-Role"
)

// UserStore is implemented by *storage.UserRepository.
type UserStore interface {
	Create(ctx context.Context, user storage.User) (storage.User, error)
	GetByUsername(ctx context.Context, username string) (storage.User, error)
	GetByID(ctx context.Context, id int64) (storage.User, error)
	Update(ctx context.Context, user storage.User) (storage.User, error)
}

type AuthHandler struct {
	signer   TokenSigner
	users    UserStore
	tokenTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthHandler(signer TokenSigner, users UserStore, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		signer:   signer,
		users:    users,
		tokenTTL: tokenTTL,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *AuthHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/auth/register", h.Register)
	mux.HandleFunc("/api/v1/auth/login", h.Login)
	mux.HandleFunc("/api/v1/auth/me", h.Me)
	mux.HandleFunc("/api/v1/users/{id}", h.User)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Name     *string `json:"name"`
	Role     *string `json:"role"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        userResponse `json:"user"`
}

type meResponse struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"expires_at"`
}

func toUserResponse(u storage.User) userResponse {
	out := userResponse{ID: u.ID, Username: u.Username, Name: u.Name, Role: string(u.Role)}
	if !u.CreatedAt.IsZero() {
		out.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}
	// Only an authenticated admin may mint another admin.
	if role == domain.RoleAdmin && !callerIsAdmin(r) {
		role = domain.RoleClient
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	user, err := h.users.Create(r.Context(), storage.User{
		Username:     req.Username,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         role,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		http.Error(w, "username already registered", http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("create user failed", "err", err)
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	h.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error("lookup user failed", "err", err)
		http.Error(w, "failed to lookup user", http.StatusInternalServerError)
		return
	}
	if err := verifyPassword(user.PasswordHash, req.Password); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.issueJWT(user)
	if err != nil {
		h.logger.Error("issue token failed", "err", err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenTTL / time.Second),
		User:        toUserResponse(user),
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token, ok := auth.BearerToken(r)
	if !ok {
		http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
		return
	}
	claims, err := h.signer.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, meResponse{
		UserID:    claims.UserID(),
		Username:  claims.Username,
		Role:      claims.Role,
		ExpiresAt: claims.Exp,
	})
}

// User serves GET and PUT /api/v1/users/{id}. Callers other than admins may
// only touch their own record and never change a role.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	admin := callerIsAdmin(r)
	if !admin && r.Header.Get(HeaderUserID) != strconv.FormatInt(id, 10) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := h.users.GetByID(r.Context(), id)
		if h.writeUserError(w, err, "load user") {
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
	case http.MethodPut:
		var req updateUserRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		user, err := h.users.GetByID(r.Context(), id)
		if h.writeUserError(w, err, "load user") {
			return
		}
		if req.Username != nil {
			user.Username = strings.TrimSpace(*req.Username)
			if user.Username == "" {
				http.Error(w, "username must not be empty", http.StatusBadRequest)
				return
			}
		}
		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Role != nil {
			role, err := domain.ParseRole(*req.Role)
			if err != nil {
				http.Error(w, "unknown role", http.StatusBadRequest)
				return
			}
			if role != user.Role && !admin {
				http.Error(w, "only admins may change roles", http.StatusForbidden)
				return
			}
			user.Role = role
		}
		updated, err := h.users.Update(r.Context(), user)
		if h.writeUserError(w, err, "update user") {
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toUserResponse(updated))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AuthHandler) writeUserError(w http.ResponseWriter, err error, op string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrDuplicate):
		http.Error(w, "username already registered", http.StatusConflict)
	default:
		h.logger.Error(op+" failed", "err", err)
		http.Error(w, "failed to "+op, http.StatusInternalServerError)
	}
	return true
}

func (h *AuthHandler) issueJWT(user storage.User) (string, error) {
	return h.signer.Sign(auth.NewClaims(user.ID, user.Username, string(user.Role), h.now(), h.tokenTTL))
}

func callerIsAdmin(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(HeaderRole), string(domain.RoleAdmin))
}

func hashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash string, raw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
}
