package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/chat-api/internal/domain/conversation"
	"taskpilot/chat-api/internal/interfaces/httpserver/dto"
	"taskpilot/chat-api/internal/utils/platformerrors"
)

type stubConvRepo struct {
	conv *conversation.Conversation
}

func (s *stubConvRepo) Create(_ context.Context, conv *conversation.Conversation) error {
	conv.ID = 1
	return nil
}

func (s *stubConvRepo) FindForOwner(ctx context.Context, id uint, ownerID string) (*conversation.Conversation, error) {
	if s.conv != nil && s.conv.ID == id && s.conv.OwnerID == ownerID {
		return s.conv, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, "conversation not found", nil)
}

func (s *stubConvRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type stubMsgRepo struct {
	messages []conversation.Message
}

func (s *stubMsgRepo) Append(_ context.Context, msg *conversation.Message) error {
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *stubMsgRepo) ListRecent(_ context.Context, _ uint, _ int) ([]conversation.Message, error) {
	return s.messages, nil
}

func (s *stubMsgRepo) ListByConversationID(_ context.Context, _ uint) ([]conversation.Message, error) {
	return s.messages, nil
}

func setupRouter(convs conversation.Repository, msgs conversation.MessageRepository, ownerID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewConversationHandler(convs, msgs, zerolog.Nop())
	router := gin.New()
	router.GET("/v1/conversations/:conversation_id/messages", func(c *gin.Context) {
		SetOwnerID(c, ownerID)
		handler.ListMessages(c)
	})
	return router
}

func TestListMessagesReturnsStoredLog(t *testing.T) {
	convs := &stubConvRepo{conv: &conversation.Conversation{ID: 7, OwnerID: "alice"}}
	msgs := &stubMsgRepo{messages: []conversation.Message{
		{ID: 1, ConversationID: 7, Role: conversation.RoleUser, Content: "hi", CreatedAt: time.Now()},
		{ID: 2, ConversationID: 7, Role: conversation.RoleAssistant, Content: "hello", CreatedAt: time.Now()},
	}}
	router := setupRouter(convs, msgs, "alice")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/7/messages", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body dto.MessagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint(7), body.ConversationID)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "user", body.Messages[0].Role)
	assert.Equal(t, "hello", body.Messages[1].Content)
}

func TestListMessagesForeignConversationIsNotFound(t *testing.T) {
	convs := &stubConvRepo{conv: &conversation.Conversation{ID: 7, OwnerID: "alice"}}
	router := setupRouter(convs, &stubMsgRepo{}, "bob")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/7/messages", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListMessagesRejectsBadID(t *testing.T) {
	router := setupRouter(&stubConvRepo{}, &stubMsgRepo{}, "alice")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/abc/messages", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
