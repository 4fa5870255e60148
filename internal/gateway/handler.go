package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/af-corp/chat-orchestrator/internal/conversation"
	"github.com/af-corp/chat-orchestrator/internal/httputil"
	"github.com/af-corp/chat-orchestrator/internal/router"
	"github.com/af-corp/chat-orchestrator/internal/types"
	"github.com/go-chi/chi/v5"
)

// Input limits enforced at the HTTP edge.
const (
	MaxMessageLength = 8000
	MaxPreviewLength = 4000
	MaxTitleLength   = 255
	maxBodyBytes     = 1 << 20
)

// ReplyService is the orchestration core as seen by HTTP.
type ReplyService interface {
	GenerateReply(ctx context.Context, conversationID, overrideProfile string) (*types.LlmResponse, error)
	PreviewRouting(ctx context.Context, content, lastModelHint string) types.ClassificationResult
}

type ConversationService interface {
	Create(ctx context.Context, title, modelProfile string) (*types.Conversation, error)
	Update(ctx context.Context, id string, title, modelProfile *string) (*types.Conversation, error)
	ListMessages(ctx context.Context, id string) ([]types.Message, error)
	AddMessage(ctx context.Context, id, content, overrideProfile string) (*conversation.TurnResult, error)
}

type ProfileLister interface {
	Profiles() []router.ProfileInfo
}

// Handler holds dependencies for the HTTP handlers.
type Handler struct {
	replies       ReplyService
	conversations ConversationService
	profiles      ProfileLister
	providers     map[types.ProviderID]bool
	version       string
	logger        *slog.Logger
}

// NewHandler wires the handlers. registry may be nil, in which case the
// health report lists no providers.
func NewHandler(replies ReplyService, conversations ConversationService, profiles ProfileLister, registry *router.Registry, version string, logger *slog.Logger) *Handler {
	providers := make(map[types.ProviderID]bool)
	if registry != nil {
		for _, id := range registry.IDs() {
			p, _ := registry.Get(id)
			providers[id] = p.Available()
		}
	}
	return &Handler{
		replies:       replies,
		conversations: conversations,
		profiles:      profiles,
		providers:     providers,
		version:       version,
		logger:        logger,
	}
}

// Mount registers all routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/profiles", h.ListProfiles)
		r.Post("/preview", h.PreviewRouting)
		r.Post("/conversations", h.CreateConversation)
		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Patch("/", h.UpdateConversation)
			r.Get("/messages", h.ListMessages)
			r.Post("/messages", h.AddMessage)
			r.Post("/reply", h.GenerateReply)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFoundError(w, w.Header().Get("X-Request-ID"), "Route not found")
	})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   h.version,
		"providers": h.providers,
	})
}

// ListProfiles handles GET /v1/profiles
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   h.profiles.Profiles(),
	})
}

type previewRequest struct {
	Content   string `json:"content"`
	LastModel string `json:"lastModel,omitempty"`
}

// PreviewRouting handles POST /v1/preview. Valid input always gets a 200.
func (h *Handler) PreviewRouting(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	var req previewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return
	}
	if err := validateText("content", req.Content, MaxPreviewLength); err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return
	}

	result := h.replies.PreviewRouting(r.Context(), req.Content, strings.TrimSpace(req.LastModel))
	httputil.WriteJSON(w, http.StatusOK, result)
}

type conversationRequest struct {
	Title        *string `json:"title,omitempty"`
	ModelProfile *string `json:"modelProfile,omitempty"`
}

func (req conversationRequest) validate() error {
	if req.Title != nil && utf8.RuneCountInString(*req.Title) > MaxTitleLength {
		return fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	}
	return nil
}

// CreateConversation handles POST /v1/conversations
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	var req conversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return
	}

	conv, err := h.conversations.Create(r.Context(), deref(req.Title), deref(req.ModelProfile))
	if err != nil {
		h.fail(w, reqID, "create conversation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, conv)
}

// UpdateConversation handles PATCH /v1/conversations/{id}
func (h *Handler) UpdateConversation(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	var req conversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return
	}

	conv, err := h.conversations.Update(r.Context(), chi.URLParam(r, "id"), req.Title, req.ModelProfile)
	if err != nil {
		h.fail(w, reqID, "update conversation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, conv)
}

// ListMessages handles GET /v1/conversations/{id}/messages
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	msgs, err := h.conversations.ListMessages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, reqID, "list messages failed", err)
		return
	}
	if msgs == nil {
		msgs = []types.Message{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"object": "list", "data": msgs})
}

type addMessageRequest struct {
	Content      string `json:"content"`
	ModelProfile string `json:"modelProfile,omitempty"`
}

type turnResponse struct {
	UserMessage      types.Message          `json:"userMessage"`
	AssistantMessage *types.Message         `json:"assistantMessage"`
	ReplyError       *httputil.APIErrorBody `json:"replyError,omitempty"`
}

// AddMessage handles POST /v1/conversations/{id}/messages. A failed reply
// generation does not fail the request: the stored user message is returned
// with a null assistant message.
func (h *Handler) AddMessage(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	var req addMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return
	}
	if err := validateText("content", req.Content, MaxMessageLength); err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return
	}

	result, err := h.conversations.AddMessage(r.Context(), chi.URLParam(r, "id"), req.Content, req.ModelProfile)
	if err != nil {
		h.fail(w, reqID, "add message failed", err)
		return
	}

	resp := turnResponse{UserMessage: result.UserMessage, AssistantMessage: result.AssistantMessage}
	if result.ReplyError != nil {
		_, body := httputil.DomainError(reqID, result.ReplyError)
		resp.ReplyError = &body
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

type replyRequest struct {
	ModelProfile string `json:"modelProfile,omitempty"`
}

// GenerateReply handles POST /v1/conversations/{id}/reply. Nothing is persisted.
func (h *Handler) GenerateReply(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	var req replyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return
	}

	resp, err := h.replies.GenerateReply(r.Context(), chi.URLParam(r, "id"), strings.TrimSpace(req.ModelProfile))
	if err != nil {
		h.fail(w, reqID, "generate reply failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(w http.ResponseWriter, reqID, msg string, err error) {
	status, _ := httputil.DomainError(reqID, err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "request_id", reqID, "error", err)
	}
	httputil.WriteDomainError(w, reqID, err)
}

// decodeJSON reads an optional JSON body; an empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON: %v", err)
	}
	return nil
}

func validateText(field, s string, max int) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(s) > max {
		return fmt.Errorf("%s must be at most %d characters", field, max)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
