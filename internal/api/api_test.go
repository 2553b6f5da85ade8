package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/internal/api/middleware/mwrequest"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/logger/mocklogger"
)

func pingService() Service {
	return Service{
		Path: "/ping",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, mwrequest.FromContext(r.Context()))
		}),
	}
}

func TestListenServices_UnixSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "s.sock")
	logger, logs := mocklogger.NewMockLogger()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenServices(ctx, []Service{pingService()}, Config{Mode: ServerModeUDS, SocketPath: socketPath, Logger: logger})
	}()

	client := &http.Client{Transport: &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}}

	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = client.Get("http://scanflow/ping")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = uuid.Parse(string(body))
	assert.NoError(t, err, "handler sees a generated request id")
	assert.Equal(t, string(body), resp.Header.Get(mwrequest.HeaderRequestID))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Contains(t, logs.Messages(), "Registering service")
	assert.Contains(t, logs.Messages(), "Server listening on Unix socket")
}

func TestNewHandler_KeepsClientRequestID(t *testing.T) {
	h := NewHandler([]Service{pingService()}, nil)

	id := uuid.NewString()
	req, err := http.NewRequest(http.MethodGet, "/ping", nil)
	require.NoError(t, err)
	req.Header.Set(mwrequest.HeaderRequestID, id)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Body.String())
	assert.Equal(t, id, rec.Header().Get(mwrequest.HeaderRequestID))
}
