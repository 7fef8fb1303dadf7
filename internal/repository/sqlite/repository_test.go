package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"skiff/internal/domain"
	"skiff/internal/domain/models"
	"skiff/internal/domain/repositories"
)

func newTestConfig(t *testing.T) *RepositoryConfig {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &RepositoryConfig{
		DB:     db,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func mustCreateUser(t *testing.T, repo repositories.UserRepository) *models.User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), uuid.NewString()+"@example.com", "secret123")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateChat(t *testing.T, repo repositories.ChatRepository, userID string, createdAt time.Time) *models.Chat {
	t.Helper()
	chat := &models.Chat{
		ID:         uuid.NewString(),
		CreatedAt:  createdAt,
		Title:      "test chat",
		UserID:     userID,
		Visibility: models.VisibilityPrivate,
	}
	created, err := repo.SaveChat(context.Background(), chat)
	if err != nil {
		t.Fatalf("save chat: %v", err)
	}
	if !created {
		t.Fatalf("expected chat %s to be created", chat.ID)
	}
	return chat
}

func mustSaveMessage(t *testing.T, repo repositories.MessageRepository, chatID, role, text string, createdAt time.Time) *models.Message {
	t.Helper()
	msg := models.Message{
		ID:     uuid.NewString(),
		ChatID: chatID,
		Role:   role,
		Parts: models.PartList{
			{Type: models.PartTypeText, Text: text},
		},
		Attachments: models.AttachmentList{},
		CreatedAt:   createdAt,
	}
	if err := repo.SaveMessages(context.Background(), []models.Message{msg}); err != nil {
		t.Fatalf("save message: %v", err)
	}
	return &msg
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	config := newTestConfig(t)
	repo := NewUserRepository(config)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Password == nil {
		t.Fatal("expected password hash to be set")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte("hunter22")); err != nil {
		t.Errorf("stored password is not a valid hash of the input: %v", err)
	}

	byID, err := repo.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", byID.Email)
	}

	byEmail, err := repo.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get user by email: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("id = %q, want %q", byEmail.ID, user.ID)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	config := newTestConfig(t)
	repo := NewUserRepository(config)
	ctx := context.Background()

	if _, err := repo.CreateUser(ctx, "bob@example.com", "pw1"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err := repo.CreateUser(ctx, "bob@example.com", "pw2")
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestUserRepository_GetMissing(t *testing.T) {
	config := newTestConfig(t)
	repo := NewUserRepository(config)

	_, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUserRepository_CreateGuestUser(t *testing.T) {
	config := newTestConfig(t)
	repo := NewUserRepository(config)

	guest, err := repo.CreateGuestUser(context.Background())
	if err != nil {
		t.Fatalf("create guest user: %v", err)
	}
	if guest.Email == "" {
		t.Error("expected generated guest email")
	}
	if guest.Password == nil {
		t.Error("expected guest password hash")
	}
}

func TestChatRepository_SaveChatIdempotent(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	chat := &models.Chat{
		ID:     uuid.NewString(),
		Title:  "first",
		UserID: user.ID,
	}

	created, err := chats.SaveChat(ctx, chat)
	if err != nil {
		t.Fatalf("save chat: %v", err)
	}
	if !created {
		t.Error("first save should report created")
	}

	again := &models.Chat{ID: chat.ID, Title: "second", UserID: user.ID}
	created, err = chats.SaveChat(ctx, again)
	if err != nil {
		t.Fatalf("save chat again: %v", err)
	}
	if created {
		t.Error("second save should not report created")
	}

	stored, err := chats.GetChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if stored.Title != "first" {
		t.Errorf("title = %q, want the original row to survive", stored.Title)
	}
	if stored.Visibility != models.VisibilityPrivate {
		t.Errorf("visibility = %q, want default private", stored.Visibility)
	}
}

func TestChatRepository_ListChatsForUser(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ordered := make([]*models.Chat, 5)
	for i := range ordered {
		ordered[i] = mustCreateChat(t, chats, user.ID, base.Add(time.Duration(i)*time.Minute))
	}

	t.Run("first page newest first", func(t *testing.T) {
		history, err := chats.ListChatsForUser(ctx, user.ID, repositories.ChatPage{Limit: 2})
		if err != nil {
			t.Fatalf("list chats: %v", err)
		}
		if len(history.Chats) != 2 {
			t.Fatalf("got %d chats, want 2", len(history.Chats))
		}
		if !history.HasMore {
			t.Error("expected hasMore")
		}
		if history.Chats[0].ID != ordered[4].ID || history.Chats[1].ID != ordered[3].ID {
			t.Errorf("unexpected page order: %s, %s", history.Chats[0].ID, history.Chats[1].ID)
		}
	})

	t.Run("ending before walks older chats", func(t *testing.T) {
		history, err := chats.ListChatsForUser(ctx, user.ID, repositories.ChatPage{
			Limit:        2,
			EndingBefore: &ordered[3].ID,
		})
		if err != nil {
			t.Fatalf("list chats: %v", err)
		}
		if len(history.Chats) != 2 {
			t.Fatalf("got %d chats, want 2", len(history.Chats))
		}
		if history.Chats[0].ID != ordered[2].ID || history.Chats[1].ID != ordered[1].ID {
			t.Errorf("unexpected page: %s, %s", history.Chats[0].ID, history.Chats[1].ID)
		}
		if !history.HasMore {
			t.Error("expected hasMore: one older chat remains")
		}
	})

	t.Run("starting after returns newer chats", func(t *testing.T) {
		history, err := chats.ListChatsForUser(ctx, user.ID, repositories.ChatPage{
			Limit:         10,
			StartingAfter: &ordered[2].ID,
		})
		if err != nil {
			t.Fatalf("list chats: %v", err)
		}
		if len(history.Chats) != 2 {
			t.Fatalf("got %d chats, want 2", len(history.Chats))
		}
		if history.HasMore {
			t.Error("did not expect hasMore")
		}
	})

	t.Run("exact page boundary has no more", func(t *testing.T) {
		history, err := chats.ListChatsForUser(ctx, user.ID, repositories.ChatPage{Limit: 5})
		if err != nil {
			t.Fatalf("list chats: %v", err)
		}
		if len(history.Chats) != 5 {
			t.Fatalf("got %d chats, want 5", len(history.Chats))
		}
		if history.HasMore {
			t.Error("did not expect hasMore at exact boundary")
		}
	})

	t.Run("missing cursor anchor", func(t *testing.T) {
		missing := uuid.NewString()
		_, err := chats.ListChatsForUser(ctx, user.ID, repositories.ChatPage{
			Limit:         2,
			StartingAfter: &missing,
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		other := mustCreateUser(t, users)
		history, err := chats.ListChatsForUser(ctx, other.ID, repositories.ChatPage{Limit: 10})
		if err != nil {
			t.Fatalf("list chats: %v", err)
		}
		if history.Chats == nil {
			t.Error("chats slice should be non-nil so it serializes as []")
		}
		if len(history.Chats) != 0 || history.HasMore {
			t.Errorf("got %d chats hasMore=%v, want empty page", len(history.Chats), history.HasMore)
		}
	})
}

func TestChatRepository_UpdateTitleAndVisibility(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	chat := mustCreateChat(t, chats, user.ID, time.Now().UTC())

	if err := chats.UpdateChatTitle(ctx, chat.ID, "renamed"); err != nil {
		t.Fatalf("update title: %v", err)
	}
	if err := chats.UpdateChatVisibility(ctx, chat.ID, models.VisibilityPublic); err != nil {
		t.Fatalf("update visibility: %v", err)
	}

	stored, err := chats.GetChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if stored.Title != "renamed" {
		t.Errorf("title = %q, want renamed", stored.Title)
	}
	if stored.Visibility != models.VisibilityPublic {
		t.Errorf("visibility = %q, want public", stored.Visibility)
	}
}

func TestChatRepository_DeleteChatCascades(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	messages := NewMessageRepository(config)
	votes := NewVoteRepository(config)
	streams := NewStreamRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	chat := mustCreateChat(t, chats, user.ID, time.Now().UTC())
	msg := mustSaveMessage(t, messages, chat.ID, models.RoleAssistant, "hello", time.Now().UTC())

	if err := votes.VoteMessage(ctx, chat.ID, msg.ID, true); err != nil {
		t.Fatalf("vote message: %v", err)
	}
	if err := streams.CreateStreamMarker(ctx, uuid.NewString(), chat.ID); err != nil {
		t.Fatalf("create stream marker: %v", err)
	}

	deleted, err := chats.DeleteChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("delete chat: %v", err)
	}
	if deleted.ID != chat.ID {
		t.Errorf("deleted id = %q, want %q", deleted.ID, chat.ID)
	}

	if _, err := chats.GetChat(ctx, chat.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get chat after delete: err = %v, want ErrNotFound", err)
	}
	remaining, err := messages.GetMessagesByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("got %d messages after cascade, want 0", len(remaining))
	}
	voteRows, err := votes.GetVotesByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("get votes: %v", err)
	}
	if len(voteRows) != 0 {
		t.Errorf("got %d votes after cascade, want 0", len(voteRows))
	}
	streamIDs, err := streams.GetStreamIDsByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("get stream ids: %v", err)
	}
	if len(streamIDs) != 0 {
		t.Errorf("got %d stream markers after cascade, want 0", len(streamIDs))
	}
}

func TestChatRepository_DeleteMissingChat(t *testing.T) {
	config := newTestConfig(t)
	chats := NewChatRepository(config)

	_, err := chats.DeleteChat(context.Background(), uuid.NewString())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestChatRepository_DeleteAllChatsForUser(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	messages := NewMessageRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	other := mustCreateUser(t, users)

	for i := 0; i < 3; i++ {
		chat := mustCreateChat(t, chats, user.ID, time.Now().UTC().Add(time.Duration(i)*time.Second))
		mustSaveMessage(t, messages, chat.ID, models.RoleUser, "hi", time.Now().UTC())
	}
	kept := mustCreateChat(t, chats, other.ID, time.Now().UTC())

	count, err := chats.DeleteAllChatsForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("delete all chats: %v", err)
	}
	if count != 3 {
		t.Errorf("deleted %d chats, want 3", count)
	}

	if _, err := chats.GetChat(ctx, kept.ID); err != nil {
		t.Errorf("other user's chat should survive: %v", err)
	}

	history, err := chats.ListChatsForUser(ctx, user.ID, repositories.ChatPage{Limit: 10})
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(history.Chats) != 0 {
		t.Errorf("got %d chats after delete-all, want 0", len(history.Chats))
	}
}

func TestMessageRepository_SaveAndGetRoundTrip(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	messages := NewMessageRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	chat := mustCreateChat(t, chats, user.ID, time.Now().UTC())

	msg := models.Message{
		ID:     uuid.NewString(),
		ChatID: chat.ID,
		Role:   models.RoleAssistant,
		Parts: models.PartList{
			{Type: models.PartTypeReasoning, Text: "thinking it through"},
			{Type: models.PartTypeText, Text: "the answer"},
			{
				Type:       models.ToolPartPrefix + "get_weather",
				ToolCallID: "call-1",
				State:      models.ToolStateOutputAvailable,
				Input:      []byte(`{"latitude":52.52,"longitude":13.4}`),
				Output:     []byte(`{"temperature":19.5}`),
			},
		},
		Attachments: models.AttachmentList{
			{Name: "pic.png", URL: "/api/files/123-pic.png", ContentType: "image/png"},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := messages.SaveMessages(ctx, []models.Message{msg}); err != nil {
		t.Fatalf("save messages: %v", err)
	}

	stored, err := messages.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if len(stored.Parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(stored.Parts))
	}
	if stored.Parts[2].Type != "tool-get_weather" || stored.Parts[2].State != models.ToolStateOutputAvailable {
		t.Errorf("tool part did not round-trip: %+v", stored.Parts[2])
	}
	if len(stored.Attachments) != 1 || stored.Attachments[0].URL != "/api/files/123-pic.png" {
		t.Errorf("attachments did not round-trip: %+v", stored.Attachments)
	}
}

func TestMessageRepository_OrderAscending(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	messages := NewMessageRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	chat := mustCreateChat(t, chats, user.ID, time.Now().UTC())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mustSaveMessage(t, messages, chat.ID, models.RoleAssistant, "second", base.Add(time.Minute))
	mustSaveMessage(t, messages, chat.ID, models.RoleUser, "first", base)

	got, err := messages.GetMessagesByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0].Parts[0].Text != "first" || got[1].Parts[0].Text != "second" {
		t.Errorf("messages out of order: %q then %q", got[0].Parts[0].Text, got[1].Parts[0].Text)
	}
}

func TestMessageRepository_UpdateParts(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	messages := NewMessageRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	chat := mustCreateChat(t, chats, user.ID, time.Now().UTC())
	msg := mustSaveMessage(t, messages, chat.ID, models.RoleAssistant, "before", time.Now().UTC())

	newParts := models.PartList{{Type: models.PartTypeText, Text: "after"}}
	if err := messages.UpdateMessageParts(ctx, msg.ID, newParts); err != nil {
		t.Fatalf("update parts: %v", err)
	}

	stored, err := messages.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if stored.Parts[0].Text != "after" {
		t.Errorf("parts text = %q, want after", stored.Parts[0].Text)
	}

	err = messages.UpdateMessageParts(ctx, uuid.NewString(), newParts)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("update missing message: err = %v, want ErrNotFound", err)
	}
}

func TestMessageRepository_DeleteMessagesAfter(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	messages := NewMessageRepository(config)
	votes := NewVoteRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	chat := mustCreateChat(t, chats, user.ID, time.Now().UTC())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	keep := mustSaveMessage(t, messages, chat.ID, models.RoleUser, "keep", base)
	cut := mustSaveMessage(t, messages, chat.ID, models.RoleAssistant, "cut", base.Add(time.Minute))
	mustSaveMessage(t, messages, chat.ID, models.RoleUser, "also cut", base.Add(2*time.Minute))

	if err := votes.VoteMessage(ctx, chat.ID, cut.ID, true); err != nil {
		t.Fatalf("vote message: %v", err)
	}

	// Cutoff is inclusive: the message created exactly at ts goes too.
	deleted, err := messages.DeleteMessagesAfter(ctx, chat.ID, cut.CreatedAt)
	if err != nil {
		t.Fatalf("delete messages after: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d messages, want 2", deleted)
	}

	remaining, err := messages.GetMessagesByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != keep.ID {
		t.Errorf("remaining = %v, want only %s", remaining, keep.ID)
	}

	voteRows, err := votes.GetVotesByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("get votes: %v", err)
	}
	if len(voteRows) != 0 {
		t.Errorf("got %d votes, want 0 after deleting voted message", len(voteRows))
	}
}

func TestMessageRepository_CountUserMessagesSince(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	messages := NewMessageRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	other := mustCreateUser(t, users)
	chat := mustCreateChat(t, chats, user.ID, time.Now().UTC())
	otherChat := mustCreateChat(t, chats, other.ID, time.Now().UTC())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mustSaveMessage(t, messages, chat.ID, models.RoleUser, "old", base.Add(-time.Hour))
	mustSaveMessage(t, messages, chat.ID, models.RoleUser, "recent", base)
	mustSaveMessage(t, messages, chat.ID, models.RoleAssistant, "reply", base.Add(time.Second))
	mustSaveMessage(t, messages, otherChat.ID, models.RoleUser, "someone else", base)

	count, err := messages.CountUserMessagesSince(ctx, user.ID, base)
	if err != nil {
		t.Fatalf("count user messages: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (user-role, this user, within window)", count)
	}
}

func TestVoteRepository_UpsertOverwrites(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	messages := NewMessageRepository(config)
	votes := NewVoteRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	chat := mustCreateChat(t, chats, user.ID, time.Now().UTC())
	msg := mustSaveMessage(t, messages, chat.ID, models.RoleAssistant, "judge me", time.Now().UTC())

	if err := votes.VoteMessage(ctx, chat.ID, msg.ID, true); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if err := votes.VoteMessage(ctx, chat.ID, msg.ID, false); err != nil {
		t.Fatalf("second vote: %v", err)
	}

	rows, err := votes.GetVotesByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("get votes: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d votes, want exactly 1", len(rows))
	}
	if rows[0].IsUpvoted {
		t.Error("vote should have been overwritten to downvote")
	}
}

func TestDocumentRepository_Versioning(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	docs := NewDocumentRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	docID := uuid.NewString()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, content := range []string{"v1", "v2", "v3"} {
		c := content
		err := docs.SaveDocument(ctx, &models.Document{
			ID:        docID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Title:     "essay",
			Content:   &c,
			Kind:      models.DocumentKindText,
			UserID:    user.ID,
		})
		if err != nil {
			t.Fatalf("save document v%d: %v", i+1, err)
		}
	}

	versions, err := docs.GetDocumentVersions(ctx, docID)
	if err != nil {
		t.Fatalf("get versions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("got %d versions, want 3", len(versions))
	}
	if *versions[0].Content != "v1" || *versions[2].Content != "v3" {
		t.Errorf("versions out of order: %q .. %q", *versions[0].Content, *versions[2].Content)
	}

	latest, err := docs.GetLatestDocument(ctx, docID)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if *latest.Content != "v3" {
		t.Errorf("latest content = %q, want v3", *latest.Content)
	}
}

func TestDocumentRepository_MissingDocument(t *testing.T) {
	config := newTestConfig(t)
	docs := NewDocumentRepository(config)
	ctx := context.Background()

	if _, err := docs.GetDocumentVersions(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get versions: err = %v, want ErrNotFound", err)
	}
	if _, err := docs.GetLatestDocument(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get latest: err = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepository_DeleteVersionsAfter(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	docs := NewDocumentRepository(config)
	suggestions := NewSuggestionRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	docID := uuid.NewString()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		c := "content"
		err := docs.SaveDocument(ctx, &models.Document{
			ID:        docID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Title:     "essay",
			Content:   &c,
			Kind:      models.DocumentKindText,
			UserID:    user.ID,
		})
		if err != nil {
			t.Fatalf("save document: %v", err)
		}
	}

	err := suggestions.SaveSuggestions(ctx, []models.Suggestion{{
		ID:                uuid.NewString(),
		DocumentID:        docID,
		DocumentCreatedAt: base.Add(2 * time.Minute),
		OriginalText:      "teh",
		SuggestedText:     "the",
		UserID:            user.ID,
		CreatedAt:         base.Add(2 * time.Minute),
	}})
	if err != nil {
		t.Fatalf("save suggestions: %v", err)
	}

	// Cutoff is exclusive: the version created exactly at ts survives.
	removed, err := docs.DeleteDocumentVersionsAfter(ctx, docID, base)
	if err != nil {
		t.Fatalf("delete versions after: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("removed %d versions, want 2", len(removed))
	}

	versions, err := docs.GetDocumentVersions(ctx, docID)
	if err != nil {
		t.Fatalf("get versions: %v", err)
	}
	if len(versions) != 1 || !versions[0].CreatedAt.Equal(base) {
		t.Errorf("surviving versions = %v, want only the base version", versions)
	}

	remaining, err := suggestions.GetSuggestionsByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("get suggestions: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("got %d suggestions, want 0 after version delete", len(remaining))
	}
}

func TestSuggestionRepository_SaveAndGet(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	suggestions := NewSuggestionRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	docID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Second)

	desc := "spelling"
	batch := []models.Suggestion{
		{
			ID:                uuid.NewString(),
			DocumentID:        docID,
			DocumentCreatedAt: now,
			OriginalText:      "teh cat",
			SuggestedText:     "the cat",
			Description:       &desc,
			UserID:            user.ID,
		},
		{
			ID:                uuid.NewString(),
			DocumentID:        docID,
			DocumentCreatedAt: now,
			OriginalText:      "a dog",
			SuggestedText:     "the dog",
			UserID:            user.ID,
		},
	}
	if err := suggestions.SaveSuggestions(ctx, batch); err != nil {
		t.Fatalf("save suggestions: %v", err)
	}

	got, err := suggestions.GetSuggestionsByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("get suggestions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(got))
	}
	for _, s := range got {
		if s.IsResolved {
			t.Errorf("suggestion %s should start unresolved", s.ID)
		}
	}
}

func TestStreamRepository_MarkersOldestFirst(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	streams := NewStreamRepository(config)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	chat := mustCreateChat(t, chats, user.ID, time.Now().UTC())

	first := uuid.NewString()
	second := uuid.NewString()
	if err := streams.CreateStreamMarker(ctx, first, chat.ID); err != nil {
		t.Fatalf("create marker: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := streams.CreateStreamMarker(ctx, second, chat.ID); err != nil {
		t.Fatalf("create marker: %v", err)
	}

	ids, err := streams.GetStreamIDsByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("get stream ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != first || ids[1] != second {
		t.Errorf("ids = %v, want [%s %s]", ids, first, second)
	}

	markers, err := streams.GetStreamMarkersByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("get stream markers: %v", err)
	}
	if len(markers) != 2 || markers[0].ID != first {
		t.Errorf("markers = %v, want oldest first", markers)
	}
}

func TestTransactionManager_RollbackOnError(t *testing.T) {
	config := newTestConfig(t)
	users := NewUserRepository(config)
	chats := NewChatRepository(config)
	tm := NewTransactionManager(config.DB)
	ctx := context.Background()

	user := mustCreateUser(t, users)
	chatID := uuid.NewString()

	err := tm.ExecTx(ctx, func(txCtx context.Context) error {
		_, err := chats.SaveChat(txCtx, &models.Chat{ID: chatID, Title: "doomed", UserID: user.ID})
		if err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error from ExecTx")
	}

	if _, err := chats.GetChat(ctx, chatID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("chat should have been rolled back: err = %v", err)
	}
}
