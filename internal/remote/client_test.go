package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// envelope 构造服务端统一响应
func envelope(t *testing.T, c int, data any) []byte {
	t.Helper()
	body := map[string]any{
		"code":   c,
		"status": c == code.Success.Code(),
	}
	if data != nil {
		body["data"] = data
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return raw
}

func entryData(id int64, date string, texts ...string) map[string]any {
	blocks := make([]map[string]any, 0, len(texts))
	for _, text := range texts {
		blocks = append(blocks, map[string]any{
			"id":   domain.NewBlockID(),
			"type": "paragraph",
			"text": text,
		})
	}
	return map[string]any{
		"id":     id,
		"date":   date,
		"blocks": blocks,
	}
}

func TestClient_CreateEntry(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write(envelope(t, code.Success.Code(), entryData(42, "2024-01-01", "Hello")))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Token: "tk-test"}, zap.NewNop())

	draft := &domain.Entry{
		Date:   "2024-01-01",
		Blocks: []domain.Block{{ID: domain.NewBlockID(), Type: domain.BlockTypeParagraph, Text: "Hello"}},
	}
	remote, err := c.CreateEntry(context.Background(), draft)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/entry", gotPath)
	assert.Equal(t, "tk-test", gotAuth)
	assert.Equal(t, "2024-01-01", gotBody["date"])

	assert.Equal(t, "42", remote.ID)
	assert.Equal(t, "2024-01-01", remote.Date)
	require.Len(t, remote.Blocks, 1)
	assert.Equal(t, "Hello", remote.Blocks[0].Text)
}

func TestClient_UpdateEntry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, float64(42), body["id"])

		w.Write(envelope(t, code.Success.Code(), entryData(42, "2024-01-01", "Hello", "World")))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Token: "tk-test"}, zap.NewNop())

	blocks := []domain.Block{
		{ID: domain.NewBlockID(), Type: domain.BlockTypeParagraph, Text: "Hello"},
		{ID: domain.NewBlockID(), Type: domain.BlockTypeParagraph, Text: "World"},
	}
	remote, err := c.UpdateEntry(context.Background(), "42", blocks)
	require.NoError(t, err)
	assert.Equal(t, "42", remote.ID)
	assert.Len(t, remote.Blocks, 2)
}

func TestClient_UpdateEntryNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope(t, code.ErrorEntryNotFound.Code(), nil))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Token: "tk-test"}, zap.NewNop())

	_, err := c.UpdateEntry(context.Background(), "42", nil)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	assert.False(t, domain.IsRetryable(err))
}

func TestClient_AuthFailure(t *testing.T) {
	t.Run("envelope code", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(envelope(t, code.ErrorInvalidUserAuthToken.Code(), nil))
		}))
		defer ts.Close()

		c := New(Config{BaseURL: ts.URL, Token: "expired"}, zap.NewNop())
		_, err := c.ListEntries(context.Background(), 0)
		assert.ErrorIs(t, err, domain.ErrAuthFailed)
		assert.True(t, domain.IsAuthError(err))
	})

	t.Run("http 401", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer ts.Close()

		c := New(Config{BaseURL: ts.URL, Token: "expired"}, zap.NewNop())
		_, err := c.ListEntries(context.Background(), 0)
		assert.ErrorIs(t, err, domain.ErrAuthFailed)
	})
}

func TestClient_ListEntries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/entries", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))

		w.Write(envelope(t, code.Success.Code(), []any{
			entryData(1, "2024-01-01", "a"),
			entryData(2, "2024-01-02", "b"),
		}))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Token: "tk-test"}, zap.NewNop())

	entries, err := c.ListEntries(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1", entries[0].ID)
	assert.Equal(t, "2024-01-02", entries[1].Date)
}

func TestClient_DeleteEntry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "42", r.URL.Query().Get("id"))
		w.Write(envelope(t, code.Success.Code(), nil))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Token: "tk-test"}, zap.NewNop())
	assert.NoError(t, c.DeleteEntry(context.Background(), "42"))
}

func TestClient_ServerErrorIsRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope(t, code.ServerError.Code(), nil))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Token: "tk-test"}, zap.NewNop())
	_, err := c.ListEntries(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}
