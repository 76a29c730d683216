package slackhandler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"teamspark/internal/domain/auth"
	"teamspark/internal/domain/identity"
	"teamspark/internal/domain/kudos"
	"teamspark/internal/platform/slack"
	"teamspark/internal/requestctx"
	"teamspark/internal/transport/http/api"
)

type Handler struct {
	SigningSecret string
	Users         *identity.Store
	Kudos         *kudos.Service
	Web           *slack.Client
}

func NewHandler(signingSecret string, users *identity.Store, kudosSvc *kudos.Service, web *slack.Client) *Handler {
	return &Handler{SigningSecret: signingSecret, Users: users, Kudos: kudosSvc, Web: web}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/slack/commands", h.HandleCommand)
}

// slash-command responses are HTTP 200 regardless of outcome; Slack shows the
// text to the invoking user. response_type controls visibility.
type commandResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

func ephemeral(text string) commandResponse {
	return commandResponse{ResponseType: "ephemeral", Text: text}
}

func inChannel(text string) commandResponse {
	return commandResponse{ResponseType: "in_channel", Text: text}
}

func (h *Handler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read request body", reqID)
		return
	}

	if !slack.VerifySignature(
		h.SigningSecret,
		r.Header.Get("X-Slack-Request-Timestamp"),
		r.Header.Get("X-Slack-Signature"),
		body,
		time.Now(),
	) {
		api.Fail(w, http.StatusUnauthorized, "invalid_signature", "slack signature verification failed", reqID)
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "malformed form body", reqID)
		return
	}

	switch form.Get("command") {
	case "/kudos":
		h.handleKudosCommand(w, r, form)
	default:
		writeCommand(w, ephemeral("Unknown command."))
	}
}

func (h *Handler) handleKudosCommand(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()

	cmd, err := slack.ParseKudosCommand(form.Get("text"))
	if err != nil {
		writeCommand(w, ephemeral(err.Error()))
		return
	}

	sender, err := h.Users.FindUserBySlackIDAnyOrg(ctx, form.Get("user_id"))
	if err != nil {
		writeCommand(w, ephemeral("Your Slack account is not linked to a TeamSpark user. Ask an admin to link it."))
		return
	}
	if !sender.Active {
		writeCommand(w, ephemeral("Your TeamSpark account is deactivated."))
		return
	}

	recipient, err := h.resolveRecipient(ctx, sender.OrgID, cmd)
	if err != nil {
		writeCommand(w, ephemeral("Could not find that user in your organization."))
		return
	}

	actor := auth.UserContext{UserID: sender.ID, OrgID: sender.OrgID, Role: sender.Role}
	created, err := h.Kudos.Create(ctx, actor, recipient.ID, cmd.Category, cmd.Message, kudos.SourceSlack)
	if err != nil {
		writeCommand(w, ephemeral(userFacingKudosError(err)))
		return
	}

	confirmation := sender.Name + " sent kudos to " + recipient.Name + " for " + strings.ToLower(created.Category) + ": " + created.Message
	if h.Web != nil && form.Get("channel_id") != "" {
		if err := h.Web.PostMessage(ctx, form.Get("channel_id"), confirmation); err != nil {
			slog.Warn("slack confirmation post failed", "err", err)
		}
	}
	writeCommand(w, inChannel(confirmation))
}

func (h *Handler) resolveRecipient(ctx context.Context, orgID string, cmd slack.KudosCommand) (identity.User, error) {
	if cmd.TargetSlackID != "" {
		return h.Users.FindUserBySlackID(ctx, orgID, cmd.TargetSlackID)
	}
	return h.Users.FindUserByName(ctx, orgID, cmd.TargetName)
}

func userFacingKudosError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "category"):
		return "Unknown category. Use one of: " + strings.ToLower(strings.Join(kudos.Categories, ", ")) + "."
	case strings.Contains(msg, "yourself"):
		return "You cannot send kudos to yourself."
	default:
		return "Could not create kudos: " + msg
	}
}

func writeCommand(w http.ResponseWriter, resp commandResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("slack command response write failed", "err", err)
	}
}
