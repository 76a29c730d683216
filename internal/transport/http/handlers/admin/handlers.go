package adminhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamspark/internal/domain/identity"
	"teamspark/internal/requestctx"
	"teamspark/internal/transport/http/api"
	"teamspark/internal/transport/http/middleware"
	"teamspark/internal/transport/http/shared"
)

type Handler struct {
	Identity *identity.Service
}

func NewHandler(identitySvc *identity.Service) *Handler {
	return &Handler{Identity: identitySvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/users", h.HandleListUsers)
		r.Get("/users/{userID}", h.HandleGetUser)
		r.Post("/users", h.HandleCreateUser)
		r.Patch("/users/{userID}", h.HandleUpdateUser)
		r.Post("/users/{userID}/deactivate", h.HandleDeactivateUser)
		r.Post("/users/{userID}/activate", h.HandleActivateUser)
		r.Delete("/users/{userID}", h.HandleDeleteUser)

		r.Get("/teams", h.HandleListTeams)
		r.Post("/teams", h.HandleCreateTeam)
		r.Get("/teams/{teamID}/members", h.HandleListTeamMembers)
		r.Post("/teams/{teamID}/members", h.HandleAddTeamMember)
		r.Delete("/teams/{teamID}/members/{userID}", h.HandleRemoveTeamMember)
	})
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	users, err := h.Identity.ListUsers(r.Context(), actor, page.Limit, page.Offset)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, users, reqID)
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	user, err := h.Identity.GetUser(r.Context(), actor, chi.URLParam(r, "userID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, user, reqID)
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Role     string `json:"role" validate:"required,oneof=ADMIN MANAGER MEMBER"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload createUserRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	user, err := h.Identity.CreateUser(r.Context(), actor, payload.Email, payload.Name, payload.Role, payload.Password)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, user, reqID)
}

type updateUserRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Role        *string `json:"role" validate:"omitempty,oneof=ADMIN MANAGER MEMBER"`
	SlackUserID *string `json:"slackUserId"`
}

func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload updateUserRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	user, err := h.Identity.UpdateUser(r.Context(), actor, chi.URLParam(r, "userID"), identity.UserUpdate{
		Name:        payload.Name,
		Role:        payload.Role,
		SlackUserID: payload.SlackUserID,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, user, reqID)
}

func (h *Handler) HandleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) HandleActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	if err := h.Identity.SetActive(r.Context(), actor, chi.URLParam(r, "userID"), active); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]bool{"active": active}, reqID)
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	if err := h.Identity.DeleteUser(r.Context(), actor, chi.URLParam(r, "userID")); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func (h *Handler) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	teams, err := h.Identity.ListTeams(r.Context(), actor)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, teams, reqID)
}

type createTeamRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

func (h *Handler) HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload createTeamRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}

	id, err := h.Identity.CreateTeam(r.Context(), actor, payload.Name)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) HandleListTeamMembers(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	members, err := h.Identity.ListTeamMembers(r.Context(), actor, chi.URLParam(r, "teamID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, members, reqID)
}

type addTeamMemberRequest struct {
	UserID   string `json:"userId" validate:"required"`
	TeamRole string `json:"teamRole" validate:"omitempty,oneof=MEMBER MANAGER"`
}

func (h *Handler) HandleAddTeamMember(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload addTeamMemberRequest
	if !shared.DecodeValid(w, r, &payload, reqID) {
		return
	}
	teamRole := payload.TeamRole
	if teamRole == "" {
		teamRole = identity.TeamRoleMember
	}

	if err := h.Identity.AddTeamMember(r.Context(), actor, chi.URLParam(r, "teamID"), payload.UserID, teamRole); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, map[string]string{"status": "added"}, reqID)
}

func (h *Handler) HandleRemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	if err := h.Identity.RemoveTeamMember(r.Context(), actor, chi.URLParam(r, "teamID"), chi.URLParam(r, "userID")); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "removed"}, reqID)
}
