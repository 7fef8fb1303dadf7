package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skiff/internal/domain/models"
)

func TestVoteHandler_PatchVote(t *testing.T) {
	f := newFixture(t)
	h := NewVoteHandler(f.votes, f.chats, f.logger())

	chat := f.createChat(f.user.ID, models.VisibilityPrivate)
	msg := f.saveMessage(chat.ID, models.RoleAssistant, "answer", time.Now().UTC())

	patch := func(r *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.PatchVote(w, r)
		return w
	}

	t.Run("up then down leaves one downvote", func(t *testing.T) {
		body := `{"chatId":"` + chat.ID + `","messageId":"` + msg.ID + `","type":"up"}`
		w := patch(f.request(http.MethodPatch, "/api/vote", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, w.Code)

		body = `{"chatId":"` + chat.ID + `","messageId":"` + msg.ID + `","type":"down"}`
		w = patch(f.request(http.MethodPatch, "/api/vote", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, w.Code)

		votes, err := f.votes.GetVotesByChat(context.Background(), chat.ID)
		require.NoError(t, err)
		require.Len(t, votes, 1)
		assert.False(t, votes[0].IsUpvoted)
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		body := `{"chatId":"` + chat.ID + `","messageId":"` + msg.ID + `","type":"sideways"}`
		w := patch(f.request(http.MethodPatch, "/api/vote", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		w := patch(f.request(http.MethodPatch, "/api/vote", strings.NewReader(`{"type":"up"}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("foreign chat forbidden", func(t *testing.T) {
		body := `{"chatId":"` + chat.ID + `","messageId":"` + msg.ID + `","type":"up"}`
		w := patch(f.requestAs("someone-else", http.MethodPatch, "/api/vote", strings.NewReader(body)))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestVoteHandler_GetVotes(t *testing.T) {
	f := newFixture(t)
	h := NewVoteHandler(f.votes, f.chats, f.logger())

	chat := f.createChat(f.user.ID, models.VisibilityPrivate)
	msg := f.saveMessage(chat.ID, models.RoleAssistant, "answer", time.Now().UTC())
	require.NoError(t, f.votes.VoteMessage(context.Background(), chat.ID, msg.ID, true))

	t.Run("returns chat votes", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.GetVotes(w, f.request(http.MethodGet, "/api/vote?chatId="+chat.ID, nil))

		require.Equal(t, http.StatusOK, w.Code)
		var votes []models.Vote
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &votes))
		require.Len(t, votes, 1)
		assert.Equal(t, msg.ID, votes[0].MessageID)
		assert.True(t, votes[0].IsUpvoted)
	})

	t.Run("missing chatId rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.GetVotes(w, f.request(http.MethodGet, "/api/vote", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown chat not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.GetVotes(w, f.request(http.MethodGet, "/api/vote?chatId=22222222-2222-2222-2222-222222222222", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
