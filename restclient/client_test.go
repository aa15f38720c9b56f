package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu    sync.Mutex
	raw   string
	ended []goSession.Reason
}

func (s *fakeSession) Credential(context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw, s.raw != ""
}

func (s *fakeSession) EndSession(_ context.Context, reason goSession.Reason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.raw != ""
	s.raw = ""
	s.ended = append(s.ended, reason)
	return had
}

type player struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newClient(t *testing.T, h http.Handler, session *fakeSession) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, session, WithTimeout(5*time.Second))
	require.NoError(t, err)
	return c
}

func TestNewRejectsRelativeBase(t *testing.T) {
	_, err := New("/api", &fakeSession{})
	require.Error(t, err)
}

func TestGetDecodesEnvelopeAndSendsQuery(t *testing.T) {
	var gotQuery url.Values
	var gotAuth string
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    []player{{ID: 1, Name: "Caio"}},
		})
	}), &fakeSession{raw: "tok"})

	var out Envelope[[]player]
	err := c.Get(context.Background(), "/players", url.Values{"page": {"2"}, "q": {""}}, &out)
	require.NoError(t, err)

	assert.True(t, out.Success)
	require.Len(t, out.Data, 1)
	assert.Equal(t, "Caio", out.Data[0].Name)
	assert.Equal(t, "2", gotQuery.Get("page"))
	assert.False(t, gotQuery.Has("q"))
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestPostSendsJSONBody(t *testing.T) {
	var got player
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)
		writeJSON(w, http.StatusCreated, player{ID: 7, Name: got.Name})
	}), &fakeSession{})

	var out player
	require.NoError(t, c.Post(context.Background(), "/players", player{Name: "Bia"}, &out))
	assert.Equal(t, "Bia", got.Name)
	assert.Equal(t, player{ID: 7, Name: "Bia"}, out)
}

func TestErrorStatusBecomesAPIError(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "Dados inválidos",
			"errors":  []string{"nome obrigatório"},
		})
	}), &fakeSession{})

	err := c.Put(context.Background(), "/players/1", player{}, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "Dados inválidos", apiErr.Message)
	assert.Equal(t, []string{"nome obrigatório"}, apiErr.Errors)
	assert.NotNil(t, apiErr.Details)
}

func TestErrorStatusWithoutMessage(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}), &fakeSession{})

	err := c.Delete(context.Background(), "/players/1", nil)
	require.Error(t, err)
	assert.Equal(t, "Erro HTTP 500", err.Error())
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
}

func TestSuccessFalseEnvelopeFails(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
	}), &fakeSession{})

	var out Envelope[json.RawMessage]
	err := c.Patch(context.Background(), "/players/1", map[string]string{"name": "x"}, &out)
	require.Error(t, err)
	assert.Equal(t, "Operação falhou", err.Error())
	assert.True(t, IsStatus(err, http.StatusOK))
}

func TestUnauthorizedEndsSession(t *testing.T) {
	session := &fakeSession{raw: "stale"}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Token expirado"})
	}), session)

	err := c.Get(context.Background(), "/me", nil, nil)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, "Token expirado", err.Error())
	assert.Equal(t, []goSession.Reason{goSession.ReasonUnauthorized}, session.ended)
}

func TestNetworkFailureHasZeroStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base, &fakeSession{})
	require.NoError(t, err)
	err = c.Get(context.Background(), "/players", nil, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 0, apiErr.Status)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestMalformedJSONBody(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not json"))
	}), &fakeSession{})

	err := c.Get(context.Background(), "/players", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "Erro ao processar resposta da API", err.Error())
}
