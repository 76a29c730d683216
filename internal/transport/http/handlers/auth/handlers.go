package authhandler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pquerna/otp/totp"

	"teamspark/internal/domain/audit"
	"teamspark/internal/domain/auth"
	"teamspark/internal/domain/identity"
	"teamspark/internal/platform/config"
	"teamspark/internal/requestctx"
	"teamspark/internal/transport/http/api"
	"teamspark/internal/transport/http/middleware"
)

type Handler struct {
	Users *identity.Store
	Audit *audit.Service
	Cfg   config.Config
}

func NewHandler(users *identity.Store, auditSvc *audit.Service, cfg config.Config) *Handler {
	return &Handler{Users: users, Audit: auditSvc, Cfg: cfg}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/auth/me", h.HandleMe)
		r.Post("/auth/logout", h.HandleLogout)
		r.Post("/auth/totp/setup", h.HandleTOTPSetup)
		r.Post("/auth/totp/enable", h.HandleTOTPEnable)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totpCode"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	user, creds, err := h.Users.FindActiveUserByEmail(r.Context(), email)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}
	if err := auth.CheckPassword(creds.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}

	if creds.TOTPEnabled {
		if payload.TOTPCode == "" {
			api.Fail(w, http.StatusUnauthorized, "totp_required", "totp code required", reqID)
			return
		}
		if creds.TOTPSecret == "" || !totp.Validate(payload.TOTPCode, creds.TOTPSecret) {
			api.Fail(w, http.StatusUnauthorized, "totp_invalid", "invalid totp code", reqID)
			return
		}
	}

	token, err := auth.SignToken(h.Cfg.JWTSecret, user.ID, user.OrgID, user.Role, h.Cfg.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}

	h.Audit.Record(r.Context(), user.OrgID, user.ID, "auth.login", "user", user.ID, nil, nil, true)
	api.Success(w, map[string]any{
		"token": token,
		"user":  user,
	}, reqID)
}

// HandleLogout exists for the audit trail; tokens are stateless and the
// client simply drops its copy.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	h.Audit.Record(r.Context(), actor.OrgID, actor.UserID, "auth.logout", "user", actor.UserID, nil, nil, true)
	api.Success(w, map[string]string{"status": "logged_out"}, reqID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	user, err := h.Users.GetUser(r.Context(), actor.OrgID, actor.UserID)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "user no longer exists", reqID)
		return
	}
	api.Success(w, user, reqID)
}

// HandleTOTPSetup generates and stores a pending secret; it takes effect only
// after the user confirms a valid code via enable.
func (h *Handler) HandleTOTPSetup(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	user, err := h.Users.GetUser(r.Context(), actor.OrgID, actor.UserID)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "user no longer exists", reqID)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "TeamSpark",
		AccountName: user.Email,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "totp_error", "failed to generate totp secret", reqID)
		return
	}

	if err := h.Users.SetTOTPSecret(r.Context(), actor.OrgID, actor.UserID, key.Secret(), false); err != nil {
		api.Fail(w, http.StatusInternalServerError, "totp_error", "failed to store totp secret", reqID)
		return
	}

	api.Success(w, map[string]string{
		"secret": key.Secret(),
		"url":    key.URL(),
	}, reqID)
}

type totpEnableRequest struct {
	Code string `json:"code"`
}

func (h *Handler) HandleTOTPEnable(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload totpEnableRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	secret, err := h.Users.PendingTOTPSecret(r.Context(), actor.OrgID, actor.UserID)
	if err != nil || secret == "" {
		api.Fail(w, http.StatusBadRequest, "totp_not_setup", "run totp setup first", reqID)
		return
	}
	if !totp.Validate(payload.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "totp_invalid", "invalid totp code", reqID)
		return
	}
	if err := h.Users.SetTOTPSecret(r.Context(), actor.OrgID, actor.UserID, secret, true); err != nil {
		api.Fail(w, http.StatusInternalServerError, "totp_error", "failed to enable totp", reqID)
		return
	}
	api.Success(w, map[string]bool{"totpEnabled": true}, reqID)
}
