package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lorrc/conversation-service/internal/adapters/primary/validation"
	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

// ConversationHandler handles HTTP requests for support and vendor conversations
type ConversationHandler struct {
	messages     ports.MessageService
	readState    ports.ReadStateService
	unread       ports.UnreadService
	directory    ports.ParticipantDirectory
	sendLimit    func(http.Handler) http.Handler
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewConversationHandler creates a new conversation handler. sendLimit may be
// nil; when set it wraps the insert route only.
func NewConversationHandler(
	messages ports.MessageService,
	readState ports.ReadStateService,
	unread ports.UnreadService,
	directory ports.ParticipantDirectory,
	sendLimit func(http.Handler) http.Handler,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		messages:     messages,
		readState:    readState,
		unread:       unread,
		directory:    directory,
		sendLimit:    sendLimit,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "conversation"),
	}
}

// RegisterRoutes sets up the routing for all conversation endpoints.
func (h *ConversationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/{channel}", func(r chi.Router) {
		r.Get("/conversations", h.HandleListConversations)
		r.Get("/unread", h.HandleTotalUnread)

		r.Route("/conversations/{scopeID}", func(r chi.Router) {
			r.Get("/messages", h.HandleListMessages)
			if h.sendLimit != nil {
				r.With(h.sendLimit).Post("/messages", h.HandleInsertMessage)
			} else {
				r.Post("/messages", h.HandleInsertMessage)
			}
			r.Post("/read", h.HandleMarkRead)
			r.Get("/unread", h.HandleUnreadCount)
		})
	})
}

// --- Request/Response DTOs ---

// InsertMessageRequest defines the expected JSON body for sending a message
type InsertMessageRequest struct {
	Body     string  `json:"body"`
	Subject  *string `json:"subject,omitempty"`
	ParentID *int64  `json:"parentId,omitempty"`
}

// Validate validates the insert message request
func (r *InsertMessageRequest) Validate() error {
	v := validation.NewValidator()

	// Lengths are counted on trimmed text, as the store will persist it.
	body := strings.TrimSpace(r.Body)
	v.Required("body", body).
		MaxLength("body", body, domain.MaxMessageBodyLength)

	if r.Subject != nil {
		v.MaxLength("subject", strings.TrimSpace(*r.Subject), domain.MaxSubjectLength)
	}

	v.Positive("parentId", r.ParentID)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// MarkReadRequest defines the optional JSON body for marking a conversation read
type MarkReadRequest struct {
	ThroughID *int64 `json:"throughId,omitempty"`
}

// MessageDTO defines the JSON response for messages.
type MessageDTO struct {
	ID         int64   `json:"id"`
	Channel    string  `json:"channel"`
	ScopeID    string  `json:"scopeId"`
	SenderRole string  `json:"senderRole"`
	AdminID    *string `json:"adminId,omitempty"`
	Subject    *string `json:"subject,omitempty"`
	Body       string  `json:"body"`
	ParentID   *int64  `json:"parentId,omitempty"`
	CreatedAt  string  `json:"createdAt"`
	IsRead     bool    `json:"isRead"`
}

func toMessageDTO(m *domain.Message) MessageDTO {
	var adminID *string
	if m.AdminID != nil {
		value := m.AdminID.String()
		adminID = &value
	}

	return MessageDTO{
		ID:         m.ID,
		Channel:    string(m.Channel),
		ScopeID:    m.ScopeID.String(),
		SenderRole: string(m.SenderRole),
		AdminID:    adminID,
		Subject:    m.Subject,
		Body:       m.Body,
		ParentID:   m.ParentID,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339Nano),
		IsRead:     m.IsRead,
	}
}

func toMessageDTOs(messages []*domain.Message) []MessageDTO {
	response := make([]MessageDTO, 0, len(messages))
	for _, m := range messages {
		response = append(response, toMessageDTO(m))
	}
	return response
}

// ConversationSummaryDTO defines the JSON response for one conversation list row.
type ConversationSummaryDTO struct {
	ScopeID        string              `json:"scopeId"`
	Participant    *ParticipantInfoDTO `json:"participant,omitempty"`
	LastMessageAt  string              `json:"lastMessageAt"`
	LastBody       string              `json:"lastBody"`
	LastSenderRole string              `json:"lastSenderRole"`
	MessageCount   int64               `json:"messageCount"`
	Unread         int64               `json:"unread"`
}

// --- Handlers ---

// HandleListConversations handles GET /channels/{channel}/conversations
func (h *ConversationHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsAdmin() {
		h.errorHandler.Handle(w, r, apperrors.ErrForbidden)
		return
	}

	channel, err := channelParam(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	summaries, err := h.messages.ListScopes(r.Context(), channel, domain.RoleAdmin)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ids := make([]uuid.UUID, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.ScopeID)
	}
	infos := buildParticipantInfoMap(r.Context(), h.directory, channel, ids, h.logger)

	response := make([]ConversationSummaryDTO, 0, len(summaries))
	for _, s := range summaries {
		dto := ConversationSummaryDTO{
			ScopeID:        s.ScopeID.String(),
			LastMessageAt:  s.LastMessageAt.Format(time.RFC3339Nano),
			LastBody:       s.LastBody,
			LastSenderRole: string(s.LastSenderRole),
			MessageCount:   s.MessageCount,
			Unread:         s.Unread,
		}
		if info, ok := infos[s.ScopeID]; ok {
			dto.Participant = &info
		}
		response = append(response, dto)
	}

	WriteList(w, response)
}

// HandleListMessages handles GET /channels/{channel}/conversations/{scopeID}/messages
func (h *ConversationHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	_, channel, scopeID, _, ok := h.resolveConversation(w, r)
	if !ok {
		return
	}

	messages, err := h.messages.List(r.Context(), channel, scopeID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toMessageDTOs(messages))
}

// HandleInsertMessage handles POST /channels/{channel}/conversations/{scopeID}/messages
func (h *ConversationHandler) HandleInsertMessage(w http.ResponseWriter, r *http.Request) {
	actor, channel, scopeID, role, ok := h.resolveConversation(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[InsertMessageRequest](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.InsertMessageParams{
		Channel:    channel,
		ScopeID:    scopeID,
		SenderRole: role,
		Subject:    req.Subject,
		Body:       req.Body,
		ParentID:   req.ParentID,
	}
	if actor.IsAdmin() {
		adminID := actor.ID
		params.AdminID = &adminID
	}

	msg, err := h.messages.Insert(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "message inserted",
		"channel", string(channel),
		"scope_id", scopeID,
		"message_id", msg.ID,
		"sender_role", string(role),
	)

	WriteCreated(w, toMessageDTO(msg))
}

// HandleMarkRead handles POST /channels/{channel}/conversations/{scopeID}/read
func (h *ConversationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	_, channel, scopeID, role, ok := h.resolveConversation(w, r)
	if !ok {
		return
	}

	// The body is optional; an empty one marks everything the viewer received.
	req := &MarkReadRequest{}
	if r.Body != nil && r.ContentLength != 0 {
		decoded, err := validation.DecodeAndValidate[MarkReadRequest](w, r)
		if err != nil && !errors.Is(err, io.EOF) {
			h.errorHandler.Handle(w, r, err)
			return
		}
		if decoded != nil {
			req = decoded
		}
	}

	v := validation.NewValidator().Positive("throughId", req.ThroughID)
	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	updated, err := h.readState.MarkRead(r.Context(), ports.MarkReadParams{
		Channel:    channel,
		ScopeID:    scopeID,
		ViewerRole: role,
		ThroughID:  req.ThroughID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCount(w, updated)
}

// HandleUnreadCount handles GET /channels/{channel}/conversations/{scopeID}/unread
func (h *ConversationHandler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	_, channel, scopeID, role, ok := h.resolveConversation(w, r)
	if !ok {
		return
	}

	count, err := h.unread.UnreadCount(r.Context(), channel, scopeID, role)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCount(w, count)
}

// HandleTotalUnread handles GET /channels/{channel}/unread. Admins get the
// channel-wide badge; users and vendors get the badge for their own conversation.
func (h *ConversationHandler) HandleTotalUnread(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	channel, err := channelParam(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	role, err := actor.RoleIn(channel)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var count int64
	if actor.IsAdmin() {
		count, err = h.unread.TotalUnread(r.Context(), channel, role)
	} else {
		count, err = h.unread.UnreadCount(r.Context(), channel, actor.ID, role)
	}
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCount(w, count)
}

// resolveConversation parses the path and checks the actor may use the
// conversation. It writes the error response itself when it returns false.
func (h *ConversationHandler) resolveConversation(w http.ResponseWriter, r *http.Request) (domain.Participant, domain.Channel, uuid.UUID, domain.SenderRole, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return domain.Participant{}, "", uuid.Nil, "", false
	}

	channel, err := channelParam(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return domain.Participant{}, "", uuid.Nil, "", false
	}

	scopeID, err := scopeParam(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return domain.Participant{}, "", uuid.Nil, "", false
	}

	role, err := actor.RoleIn(channel)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return domain.Participant{}, "", uuid.Nil, "", false
	}

	if !actor.CanAccess(channel, scopeID) {
		h.errorHandler.Handle(w, r, apperrors.ErrForbidden)
		return domain.Participant{}, "", uuid.Nil, "", false
	}

	return actor, channel, scopeID, role, true
}
