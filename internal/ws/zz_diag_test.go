package ws

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"github.com/aetherforge/aetherforge/internal/collab"
)

func TestDiagPipeline(t *testing.T) {
	reg := collab.NewRegistry()
	gateway := collab.NewGateway(reg, collab.NewTracker(nil), zaptest.NewLogger(t), 16, nil)
	srv := NewServer(testConfig(), gateway, zaptest.NewLogger(t))
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleUpgrade))
	defer ts.Close()

	alice := dial(t, ts, "userId=A&username=Alice")
	bob := dial(t, ts, "userId=B&username=Bob")
	waitForSessions(t, gateway, 2)

	sendJSON(t, alice, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	sendJSON(t, bob, map[string]any{"kind": "joinProject", "projectId": "proj1"})

	time.Sleep(300 * time.Millisecond)
	t.Logf("members now=%v", reg.MembersOf("proj1"))

	_ = alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err := alice.ReadMessage()
	t.Logf("alice read: mt=%d data=%s err=%v", mt, data, err)
	_ = bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err = bob.ReadMessage()
	t.Logf("bob read: mt=%d data=%s err=%v", mt, data, err)
}
