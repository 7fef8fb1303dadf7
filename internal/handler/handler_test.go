package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"skiff/internal/catalog"
	"skiff/internal/domain/models"
	"skiff/internal/domain/repositories"
	"skiff/internal/httputil"
	"skiff/internal/repository/sqlite"
	"skiff/internal/service/llm"
	"skiff/internal/service/llm/providers/lorem"
)

// fixture wires handlers over an in-memory database.
type fixture struct {
	t *testing.T

	users       repositories.UserRepository
	chats       repositories.ChatRepository
	messages    repositories.MessageRepository
	votes       repositories.VoteRepository
	documents   repositories.DocumentRepository
	suggestions repositories.SuggestionRepository
	streams     repositories.StreamRepository

	registry *llm.StreamRegistry
	turns    *llm.TurnService

	user *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repoConfig := &sqlite.RepositoryConfig{DB: db, Logger: logger}

	f := &fixture{
		t:           t,
		users:       sqlite.NewUserRepository(repoConfig),
		chats:       sqlite.NewChatRepository(repoConfig),
		messages:    sqlite.NewMessageRepository(repoConfig),
		votes:       sqlite.NewVoteRepository(repoConfig),
		documents:   sqlite.NewDocumentRepository(repoConfig),
		suggestions: sqlite.NewSuggestionRepository(repoConfig),
		streams:     sqlite.NewStreamRepository(repoConfig),
	}

	modelCatalog, err := catalog.Load()
	require.NoError(t, err)

	providers := llm.NewProviderRegistry()
	providers.Register(lorem.NewInstantProvider())

	f.registry = llm.NewStreamRegistry(time.Minute, time.Minute)
	f.turns = llm.NewTurnService(&llm.TurnServiceConfig{
		Logger:      logger,
		Chats:       f.chats,
		Messages:    f.messages,
		Streams:     f.streams,
		Documents:   f.documents,
		Suggestions: f.suggestions,
		Providers:   providers,
		Registry:    f.registry,
		Catalog:     modelCatalog,
		Titles:      llm.NewTitleGenerator(providers, "lorem-fast"),
	})

	f.user, err = f.users.CreateUser(context.Background(), "owner@example.com", "secret")
	require.NoError(t, err)

	return f
}

func mustCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load()
	require.NoError(t, err)
	return c
}

func (f *fixture) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fixture) chatHandler() *ChatHandler {
	return NewChatHandler(f.turns, f.registry, f.chats, f.messages, f.streams, nil, f.logger())
}

// request builds a request carrying the fixture owner's principal.
func (f *fixture) request(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	return httputil.WithPrincipal(r, models.Principal{UserID: f.user.ID, Email: f.user.Email})
}

// requestAs builds a request for an arbitrary user ID.
func (f *fixture) requestAs(userID, method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	return httputil.WithPrincipal(r, models.Principal{UserID: userID})
}

func (f *fixture) createChat(userID, visibility string) *models.Chat {
	f.t.Helper()
	chat := &models.Chat{
		ID:         uuid.NewString(),
		Title:      "Test chat",
		UserID:     userID,
		Visibility: visibility,
	}
	_, err := f.chats.SaveChat(context.Background(), chat)
	require.NoError(f.t, err)
	saved, err := f.chats.GetChat(context.Background(), chat.ID)
	require.NoError(f.t, err)
	return saved
}

func (f *fixture) saveMessage(chatID, role, text string, ts time.Time) *models.Message {
	f.t.Helper()
	msg := models.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      role,
		Parts:     models.PartList{{Type: models.PartTypeText, Text: text}},
		CreatedAt: ts,
	}
	require.NoError(f.t, f.messages.SaveMessages(context.Background(), []models.Message{msg}))
	return &msg
}
