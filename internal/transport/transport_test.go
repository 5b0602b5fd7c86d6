// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"beewatch/internal/analysis"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrameCopiesResult(t *testing.T) {
	var r analysis.Result
	for i := range r.Bins {
		r.Bins[i] = float64(i)
	}
	r.Density = 0.5
	r.Windows = 187

	f := NewFrame(&r, time.Unix(0, 0))
	r.Bins[5] = 100

	assert.Equal(t, "pass", f.Type)
	assert.Len(t, f.Bins, len(r.Bins))
	assert.Equal(t, float32(5), f.Bins[5])
	assert.Equal(t, float32(4+5+6+7), f.Bands["low"])
	assert.Equal(t, 187, f.Windows)
}

type failingTransport struct{ err error }

func (f failingTransport) Send(any) error { return f.err }
func (f failingTransport) Close() error { return f.err }

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	m := Multi{NewLoggingTransport(), failingTransport{boom}, failingTransport{}}
	assert.ErrorIs(t, m.Send(Frame{}), boom)
	assert.ErrorIs(t, m.Close(), boom)
	assert.NoError(t, Multi{NewLoggingTransport()}.Send("text"))
}

func TestWebSocketBroadcast(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("beewatch_passes_total 1\n"))
	})
	wst := newWebSocketTransport("", map[string]http.Handler{"/metrics": metrics})
	srv := httptest.NewServer(wst.Handler())
	defer srv.Close()
	defer wst.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return wst.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, wst.Send(Frame{Type: "pass", Density: 0.25, Model: "summer"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "summer", got.Model)
	assert.Equal(t, float32(0.25), got.Density)

	require.NoError(t, wst.Close())
	assert.Error(t, wst.Send(Frame{}))
}
