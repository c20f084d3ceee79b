// Package api exposes the core's operations over HTTP for the
// collaborator layer (UI/session). Query endpoints are pure functions
// of current state and degrade to empty results without auth;
// mutations surface the error taxonomy as status codes.
package api

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sync"

	"chat-core/api/validator"
	"chat-core/auth"
	"chat-core/domain"
	"chat-core/errors"
	"chat-core/services"

	"github.com/google/uuid"
)

// API provides the REST endpoints for the messaging core.
type API struct {
	Logger        *slog.Logger
	Identity      services.IIdentityService
	Conversations services.IConversationService
	Messages      services.IMessageService
	Typing        services.ITypingService
	Val           *validator.Validator

	once sync.Once
	mux  *http.ServeMux
}

func (a *API) setupRoutes() {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /users/sync", a.syncUser)
	mux.HandleFunc("POST /users/online", a.setOnline)
	mux.HandleFunc("GET /users/me", a.me)
	mux.HandleFunc("GET /users", a.listUsers)
	mux.HandleFunc("GET /users/search", a.searchUsers)
	mux.HandleFunc("POST /conversations/direct", a.createDirect)
	mux.HandleFunc("POST /conversations/group", a.createGroup)
	mux.HandleFunc("GET /conversations", a.myConversations)
	mux.HandleFunc("POST /conversations/{conversationID}/read", a.markRead)
	mux.HandleFunc("GET /conversations/{conversationID}/messages", a.listMessages)
	mux.HandleFunc("POST /conversations/{conversationID}/messages", a.sendMessage)
	mux.HandleFunc("PUT /conversations/{conversationID}/typing", a.setTyping)
	mux.HandleFunc("GET /conversations/{conversationID}/typing", a.activeTypers)
	mux.HandleFunc("DELETE /messages/{messageID}", a.deleteMessage)
	mux.HandleFunc("POST /messages/{messageID}/reactions", a.toggleReaction)
	mux.HandleFunc("GET /health", a.health)

	a.mux = mux
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.once.Do(a.setupRoutes)
	a.Logger.Info("Request received", "method", r.Method, "path", r.URL.Path)
	a.mux.ServeHTTP(w, r)
}

func (a *API) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.Logger.Error("Could not encode JSON body", "error", err.Error())
	}
}

func (a *API) respondError(w http.ResponseWriter, err error, msg string) {
	type response struct {
		Error string `json:"error"`
	}
	a.Logger.Error("Error", "error", err.Error())
	a.respond(w, statusFromErr(err), response{Error: msg})
}

// statusFromErr maps the sentinel taxonomy onto HTTP statuses.
func statusFromErr(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrUnauthenticated):
		return http.StatusUnauthorized
	case stderrors.Is(err, errors.ErrForbidden), stderrors.Is(err, errors.ErrNotAMember):
		return http.StatusForbidden
	case stderrors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrEmptyGroupName),
		stderrors.Is(err, errors.ErrNotEnoughMembers),
		stderrors.Is(err, errors.ErrSelfConversation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) decodeBody(w http.ResponseWriter, r *http.Request, body any) bool {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		a.respond(w, http.StatusBadRequest, map[string]string{"error": "Could not decode request body"})
		return false
	}
	_ = r.Body.Close()

	errs := a.Val.ValidateStruct(body)
	if len(errs) > 0 {
		type response struct {
			Errors []validator.ValidationError `json:"errors"`
		}
		a.respond(w, http.StatusBadRequest, &response{Errors: errs})
		return false
	}
	return true
}

func (a *API) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		a.respond(w, http.StatusBadRequest, map[string]string{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func (a *API) syncUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.Identity.ResolveOrCreate(auth.FromContext(r.Context()))
	if err != nil {
		a.respondError(w, err, "Could not resolve user")
		return
	}
	a.respond(w, http.StatusOK, fromDomainUser(user))
}

func (a *API) setOnline(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsOnline *bool `json:"is_online" validate:"required"`
	}
	if !a.decodeBody(w, r, &body) {
		return
	}
	if err := a.Identity.SetOnline(auth.FromContext(r.Context()), *body.IsOnline); err != nil {
		a.respondError(w, err, "Could not update presence")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	user, err := a.Identity.Me(auth.FromContext(r.Context()))
	if err != nil {
		// Racing session establishment is normal for a live UI
		a.respond(w, http.StatusOK, nil)
		return
	}
	a.respond(w, http.StatusOK, fromDomainUser(user))
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Users []User `json:"users"`
	}
	users, err := a.Identity.All(auth.FromContext(r.Context()))
	if err != nil {
		a.respondError(w, err, "Could not list users")
		return
	}
	a.respond(w, http.StatusOK, response{Users: fromDomainUsers(users)})
}

func (a *API) searchUsers(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Users []User `json:"users"`
	}
	users, err := a.Identity.Search(r.Context(), auth.FromContext(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		a.respondError(w, err, "Could not search users")
		return
	}
	a.respond(w, http.StatusOK, response{Users: fromDomainUsers(users)})
}

func (a *API) createDirect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"user_id" validate:"required,uuid"`
	}
	if !a.decodeBody(w, r, &body) {
		return
	}
	conversation, err := a.Conversations.GetOrCreateDirect(auth.FromContext(r.Context()), uuid.MustParse(body.UserID))
	if err != nil {
		a.respondError(w, err, "Could not open conversation")
		return
	}
	a.respond(w, http.StatusCreated, fromDomainConversation(conversation))
}

func (a *API) createGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MemberIDs []string `json:"member_ids" validate:"required,dive,uuid"`
		GroupName string   `json:"group_name" validate:"required"`
	}
	if !a.decodeBody(w, r, &body) {
		return
	}
	memberIDs := make([]uuid.UUID, 0, len(body.MemberIDs))
	for _, raw := range body.MemberIDs {
		memberIDs = append(memberIDs, uuid.MustParse(raw))
	}
	conversation, err := a.Conversations.CreateGroup(auth.FromContext(r.Context()), memberIDs, body.GroupName)
	if err != nil {
		a.respondError(w, err, "Could not create group")
		return
	}
	a.respond(w, http.StatusCreated, fromDomainConversation(conversation))
}

func (a *API) myConversations(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Conversations []ConversationView `json:"conversations"`
	}
	views, err := a.Conversations.MyConversations(auth.FromContext(r.Context()))
	if err != nil {
		a.respondError(w, err, "Could not list conversations")
		return
	}
	res := response{Conversations: make([]ConversationView, 0, len(views))}
	for _, view := range views {
		res.Conversations = append(res.Conversations, fromConversationView(view))
	}
	a.respond(w, http.StatusOK, res)
}

func (a *API) markRead(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := a.pathID(w, r, "conversationID")
	if !ok {
		return
	}
	if err := a.Conversations.MarkRead(auth.FromContext(r.Context()), conversationID); err != nil {
		a.respondError(w, err, "Could not mark conversation read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Messages []Message `json:"messages"`
	}
	conversationID, ok := a.pathID(w, r, "conversationID")
	if !ok {
		return
	}
	views, err := a.Messages.List(auth.FromContext(r.Context()), conversationID)
	if err != nil {
		a.respondError(w, err, "Could not list messages")
		return
	}
	res := response{Messages: make([]Message, 0, len(views))}
	for _, view := range views {
		res.Messages = append(res.Messages, fromMessageView(view))
	}
	a.respond(w, http.StatusOK, res)
}

func (a *API) sendMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content     string `json:"content" validate:"required"`
		MessageType string `json:"message_type" validate:"required,oneof=text image"`
	}
	conversationID, ok := a.pathID(w, r, "conversationID")
	if !ok {
		return
	}
	if !a.decodeBody(w, r, &body) {
		return
	}
	message, err := a.Messages.Send(
		auth.FromContext(r.Context()),
		conversationID,
		body.Content,
		domain.MessageType(body.MessageType),
	)
	if err != nil {
		a.respondError(w, err, "Could not send message")
		return
	}
	a.respond(w, http.StatusCreated, fromDomainMessage(message))
}

func (a *API) setTyping(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsTyping *bool `json:"is_typing" validate:"required"`
	}
	conversationID, ok := a.pathID(w, r, "conversationID")
	if !ok {
		return
	}
	if !a.decodeBody(w, r, &body) {
		return
	}
	if err := a.Typing.SetTyping(auth.FromContext(r.Context()), conversationID, *body.IsTyping); err != nil {
		a.respondError(w, err, "Could not update typing state")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) activeTypers(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Users []User `json:"users"`
	}
	conversationID, ok := a.pathID(w, r, "conversationID")
	if !ok {
		return
	}
	typers, err := a.Typing.ActiveTypers(auth.FromContext(r.Context()), conversationID)
	if err != nil {
		a.respondError(w, err, "Could not list typing users")
		return
	}
	a.respond(w, http.StatusOK, response{Users: fromDomainUsers(typers)})
}

func (a *API) deleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, ok := a.pathID(w, r, "messageID")
	if !ok {
		return
	}
	if err := a.Messages.SoftDelete(auth.FromContext(r.Context()), messageID); err != nil {
		a.respondError(w, err, "Could not delete message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) toggleReaction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Emoji string `json:"emoji" validate:"required"`
	}
	messageID, ok := a.pathID(w, r, "messageID")
	if !ok {
		return
	}
	if !a.decodeBody(w, r, &body) {
		return
	}
	if err := a.Messages.ToggleReaction(auth.FromContext(r.Context()), messageID, body.Emoji); err != nil {
		a.respondError(w, err, "Could not toggle reaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
