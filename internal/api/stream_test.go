package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casequest/coach-engine/internal/gateway"
	"github.com/casequest/coach-engine/internal/models"
)

func TestSessionStream(t *testing.T) {
	ts := newTestServer(t, gateway.NewMock())

	_, env := doRequest(t, http.MethodPost, ts.URL+"/api/v1/sessions", nil)
	var created models.CreateSessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/sessions/" + created.Token + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// Drive a phase change while the stream is attached
	_, env = doRequest(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+created.Token+"/practice", nil)
	require.True(t, env.Success)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev models.StreamEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, models.EventPhase, ev.Type)
	assert.Equal(t, models.PhaseSelection, ev.Phase)
}

func TestSessionStreamUnknownToken(t *testing.T) {
	ts := newTestServer(t, gateway.NewMock())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/sessions/unknown/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
