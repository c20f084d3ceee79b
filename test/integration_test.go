package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-core/api"
	"chat-core/api/validator"
	"chat-core/auth"
	"chat-core/moderation"
	"chat-core/repositories"
	"chat-core/search"
	"chat-core/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// client drives the HTTP surface as one authenticated user.
type client struct {
	t       *testing.T
	base    string
	token   string
	debug   bool
	httpCli *http.Client
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	req := require.New(c.t)

	var buf bytes.Buffer
	if body != nil {
		req.NoError(json.NewEncoder(&buf).Encode(body))
	}
	request, err := http.NewRequest(method, c.base+path, &buf)
	req.NoError(err)
	request.Header.Set("Authorization", "Bearer "+c.token)

	response, err := c.httpCli.Do(request)
	req.NoError(err)
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	req.NoError(err)
	if c.debug {
		fmt.Printf("%s %s -> %d %s\n", method, path, response.StatusCode, raw)
	}
	if out != nil && len(raw) > 0 {
		req.NoError(json.Unmarshal(raw, out))
	}
	return response.StatusCode
}

func newServer(t *testing.T, censoredWords ...string) *httptest.Server {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := search.NewUserIndex(t.TempDir())
	req.NoError(err)
	t.Cleanup(func() { _ = index.Close() })

	moderator, err := moderation.NewModerator(censoredWords, '*')
	req.NoError(err)

	log := logs.GetLoggerFromLevel(slog.LevelError)
	users := repositories.NewUserRepository(db)
	conversations := repositories.NewConversationRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)
	typing := repositories.NewTypingRepository(db)

	handler := &api.API{
		Logger:        log,
		Identity:      services.NewIdentityService(users, index, log),
		Conversations: services.NewConversationService(users, conversations, messages, log),
		Messages:      services.NewMessageService(users, conversations, messages, moderator, log),
		Typing:        services.NewTypingService(users, typing, log),
		Val:           validator.New(),
	}

	server := httptest.NewServer(auth.Middleware(handler))
	t.Cleanup(server.Close)
	return server
}

func signIn(t *testing.T, cfg Config, server *httptest.Server, subject, name string) (*client, api.User) {
	t.Helper()
	req := require.New(t)

	token, err := auth.GenerateToken(auth.Identity{
		Subject: subject,
		Name:    name,
		Email:   name + "@example.com",
	}, cfg.TokenDuration)
	req.NoError(err)

	c := &client{t: t, base: server.URL, token: token, debug: cfg.DebugJSON, httpCli: server.Client()}
	var user api.User
	status := c.do(http.MethodPost, "/users/sync", nil, &user)
	req.Equal(http.StatusOK, status)
	req.NotEmpty(user.ID)
	return c, user
}

func Test_Scenario(t *testing.T) {
	req := require.New(t)
	cfg, err := LoadConfig()
	req.NoError(err)

	server := newServer(t, "darn")

	alice, aliceUser := signIn(t, cfg, server, "user|alice", "Alice")
	bob, bobUser := signIn(t, cfg, server, "user|bob", "Bob")
	carol, carolUser := signIn(t, cfg, server, "user|carol", "Carol")

	// Alice finds Bob and opens a direct conversation
	var found struct {
		Users []api.User `json:"users"`
	}
	status := alice.do(http.MethodGet, "/users/search?q=bo", nil, &found)
	req.Equal(http.StatusOK, status)
	req.Len(found.Users, 1)
	req.Equal(bobUser.ID, found.Users[0].ID)

	var conversation api.Conversation
	status = alice.do(http.MethodPost, "/conversations/direct",
		map[string]string{"user_id": bobUser.ID}, &conversation)
	req.Equal(http.StatusCreated, status)
	req.False(conversation.IsGroup)
	req.Nil(conversation.LastMessageTime)

	// Bob opening the same pair lands on the same conversation
	var duplicate api.Conversation
	status = bob.do(http.MethodPost, "/conversations/direct",
		map[string]string{"user_id": aliceUser.ID}, &duplicate)
	req.Equal(http.StatusCreated, status)
	req.Equal(conversation.ID, duplicate.ID)

	// Alice types then sends; sending clears her typing indicator
	status = alice.do(http.MethodPut, "/conversations/"+conversation.ID+"/typing",
		map[string]bool{"is_typing": true}, nil)
	req.Equal(http.StatusNoContent, status)

	var typers struct {
		Users []api.User `json:"users"`
	}
	status = bob.do(http.MethodGet, "/conversations/"+conversation.ID+"/typing", nil, &typers)
	req.Equal(http.StatusOK, status)
	req.Len(typers.Users, 1)
	req.Equal(aliceUser.ID, typers.Users[0].ID)

	var sent api.Message
	status = alice.do(http.MethodPost, "/conversations/"+conversation.ID+"/messages",
		map[string]string{"content": "darn, hello Bob", "message_type": "text"}, &sent)
	req.Equal(http.StatusCreated, status)
	req.Equal("****, hello Bob", sent.Content)

	status = bob.do(http.MethodGet, "/conversations/"+conversation.ID+"/typing", nil, &typers)
	req.Equal(http.StatusOK, status)
	req.Empty(typers.Users)

	// Bob sees one unread; reading resets the counter
	var feed struct {
		Conversations []api.ConversationView `json:"conversations"`
	}
	status = bob.do(http.MethodGet, "/conversations", nil, &feed)
	req.Equal(http.StatusOK, status)
	req.Len(feed.Conversations, 1)
	req.Equal(1, feed.Conversations[0].UnreadCount)
	req.NotNil(feed.Conversations[0].LastMessage)
	req.Equal(sent.ID, feed.Conversations[0].LastMessage.ID)

	status = bob.do(http.MethodPost, "/conversations/"+conversation.ID+"/read", nil, nil)
	req.Equal(http.StatusNoContent, status)

	status = bob.do(http.MethodGet, "/conversations", nil, &feed)
	req.Equal(http.StatusOK, status)
	req.Equal(0, feed.Conversations[0].UnreadCount)

	// Reactions toggle on and off
	status = bob.do(http.MethodPost, "/messages/"+sent.ID+"/reactions",
		map[string]string{"emoji": "👍"}, nil)
	req.Equal(http.StatusNoContent, status)

	var listed struct {
		Messages []api.Message `json:"messages"`
	}
	status = alice.do(http.MethodGet, "/conversations/"+conversation.ID+"/messages", nil, &listed)
	req.Equal(http.StatusOK, status)
	req.Len(listed.Messages, 1)
	req.Len(listed.Messages[0].Reactions, 1)

	status = bob.do(http.MethodPost, "/messages/"+sent.ID+"/reactions",
		map[string]string{"emoji": "👍"}, nil)
	req.Equal(http.StatusNoContent, status)

	// Only the sender can delete; deletion blanks content but keeps the row
	status = bob.do(http.MethodDelete, "/messages/"+sent.ID, nil, nil)
	req.Equal(http.StatusForbidden, status)

	status = alice.do(http.MethodDelete, "/messages/"+sent.ID, nil, nil)
	req.Equal(http.StatusNoContent, status)

	status = bob.do(http.MethodGet, "/conversations/"+conversation.ID+"/messages", nil, &listed)
	req.Equal(http.StatusOK, status)
	req.Len(listed.Messages, 1)
	req.True(listed.Messages[0].IsDeleted)
	req.Empty(listed.Messages[0].Content)

	// Carol cannot write into a conversation she is not part of
	status = carol.do(http.MethodPost, "/conversations/"+conversation.ID+"/messages",
		map[string]string{"content": "hi there", "message_type": "text"}, nil)
	req.Equal(http.StatusForbidden, status)

	// Group with Bob and Carol
	var group api.Conversation
	status = alice.do(http.MethodPost, "/conversations/group",
		map[string]any{"member_ids": []string{bobUser.ID, carolUser.ID}, "group_name": "weekend"}, &group)
	req.Equal(http.StatusCreated, status)
	req.True(group.IsGroup)
	req.Equal("weekend", group.GroupName)
	req.Equal(aliceUser.ID, group.CreatedBy)

	status = carol.do(http.MethodPost, "/conversations/"+group.ID+"/messages",
		map[string]string{"content": "count me in", "message_type": "text"}, nil)
	req.Equal(http.StatusCreated, status)

	status = alice.do(http.MethodGet, "/conversations", nil, &feed)
	req.Equal(http.StatusOK, status)
	req.Len(feed.Conversations, 2)
	// Freshest conversation first
	req.Equal(group.ID, feed.Conversations[0].Conversation.ID)
}
