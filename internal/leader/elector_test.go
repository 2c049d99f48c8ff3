package leader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func electorServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIsLeader(t *testing.T) {
	ctx := context.Background()

	t.Run("matching pod name is leader", func(t *testing.T) {
		srv := electorServer(t, http.StatusOK, `{"name":"syfooversiktsrv-abc123"}`)
		e := New(srv.URL, "syfooversiktsrv-abc123", testLogger())
		assert.True(t, e.IsLeader(ctx))
	})

	t.Run("different pod name is not leader", func(t *testing.T) {
		srv := electorServer(t, http.StatusOK, `{"name":"syfooversiktsrv-def456"}`)
		e := New(srv.URL, "syfooversiktsrv-abc123", testLogger())
		assert.False(t, e.IsLeader(ctx))
	})
}

func TestIsLeaderFailsClosed(t *testing.T) {
	ctx := context.Background()

	t.Run("missing configuration", func(t *testing.T) {
		assert.False(t, New("", "pod", testLogger()).IsLeader(ctx))
		assert.False(t, New("http://localhost:1234", "", testLogger()).IsLeader(ctx))
	})

	t.Run("elector unreachable", func(t *testing.T) {
		srv := electorServer(t, http.StatusOK, `{}`)
		srv.Close()
		e := New(srv.URL, "pod", testLogger())
		assert.False(t, e.IsLeader(ctx))
	})

	t.Run("non-200 status", func(t *testing.T) {
		srv := electorServer(t, http.StatusInternalServerError, "boom")
		e := New(srv.URL, "pod", testLogger())
		assert.False(t, e.IsLeader(ctx))
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv := electorServer(t, http.StatusOK, "not json")
		e := New(srv.URL, "pod", testLogger())
		assert.False(t, e.IsLeader(ctx))
	})

	t.Run("empty leader name does not match", func(t *testing.T) {
		srv := electorServer(t, http.StatusOK, `{"name":""}`)
		e := New(srv.URL, "pod", testLogger())
		assert.False(t, e.IsLeader(ctx))
	})
}
