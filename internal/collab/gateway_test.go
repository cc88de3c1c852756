package collab

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGateway() *Gateway {
	registry := NewRegistry()
	clock := stubClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewGateway(registry, NewTracker(clock), zap.NewNop(), 16, clock)
}

// drain decodes every event currently queued on the session.
func drain(t *testing.T, sess *Session) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case data, ok := <-sess.Events():
			if !ok {
				return out
			}
			var evt Event
			require.NoError(t, json.Unmarshal(data, &evt))
			out = append(out, evt)
		default:
			return out
		}
	}
}

func send(g *Gateway, sess *Session, msg map[string]any) {
	data, _ := json.Marshal(msg)
	g.HandleMessage(sess.ID, data)
}

func TestGateway_JoinNotifiesOthersOnly(t *testing.T) {
	g := newTestGateway()
	a := g.Connect("conn-a", "A", "Alice")
	b := g.Connect("conn-b", "B", "Bob")

	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, b, map[string]any{"kind": "joinProject", "projectId": "proj1"})

	aEvents := drain(t, a)
	require.Len(t, aEvents, 1)
	assert.Equal(t, EventUserJoined, aEvents[0].Kind)

	assert.Empty(t, drain(t, b), "joiner must not receive its own userJoined")
}

func TestGateway_LeaveNotifiesRemaining(t *testing.T) {
	g := newTestGateway()
	a := g.Connect("conn-a", "A", "Alice")
	b := g.Connect("conn-b", "B", "Bob")
	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, b, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	drain(t, a)

	send(g, b, map[string]any{"kind": "leaveProject", "projectId": "proj1"})

	aEvents := drain(t, a)
	require.Len(t, aEvents, 1)
	assert.Equal(t, EventUserLeft, aEvents[0].Kind)
	assert.Empty(t, g.registry.RoomsOf("conn-b"))
}

func TestGateway_PaletteUpdateExcludesSender(t *testing.T) {
	g := newTestGateway()
	a := g.Connect("conn-a", "A", "Alice")
	b := g.Connect("conn-b", "B", "Bob")
	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, b, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	drain(t, a)
	drain(t, b)

	send(g, a, map[string]any{
		"kind":        "updatePalette",
		"projectId":   "proj1",
		"paletteData": map[string]any{"primaryColor": "#112233"},
		"userId":      "A",
	})

	bEvents := drain(t, b)
	require.Len(t, bEvents, 1)
	assert.Equal(t, EventPaletteUpdated, bEvents[0].Kind)
	assert.False(t, bEvents[0].Timestamp.IsZero())

	payload, err := json.Marshal(bEvents[0].Payload)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "#112233")
	assert.Contains(t, string(payload), `"userId":"A"`)

	assert.Empty(t, drain(t, a), "sender is excluded from its own update")
}

func TestGateway_ChatEchoesToSender(t *testing.T) {
	g := newTestGateway()
	a := g.Connect("conn-a", "A", "Alice")
	b := g.Connect("conn-b", "B", "Bob")
	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, b, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	drain(t, a)
	drain(t, b)

	send(g, a, map[string]any{
		"kind":      "sendMessage",
		"projectId": "proj1",
		"message":   "hi",
		"userId":    "A",
		"username":  "Alice",
	})

	for _, sess := range []*Session{a, b} {
		events := drain(t, sess)
		require.Len(t, events, 1, "session %s", sess.ID)
		assert.Equal(t, EventNewMessage, events[0].Kind)
		payload, err := json.Marshal(events[0].Payload)
		require.NoError(t, err)
		assert.Contains(t, string(payload), `"message":"hi"`)
	}
}

func TestGateway_SetPresenceRecordsAndBroadcasts(t *testing.T) {
	g := newTestGateway()
	a := g.Connect("conn-a", "A", "Alice")
	b := g.Connect("conn-b", "B", "Bob")
	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, b, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	drain(t, a)
	drain(t, b)

	send(g, a, map[string]any{
		"kind":      "setPresence",
		"projectId": "proj1",
		"userId":    "A",
		"username":  "Alice",
		"isOnline":  true,
	})

	entry, ok := g.presence.Get("proj1", "A")
	require.True(t, ok)
	assert.True(t, entry.IsOnline)

	bEvents := drain(t, b)
	require.Len(t, bEvents, 1)
	assert.Equal(t, EventUserPresence, bEvents[0].Kind)
	assert.Empty(t, drain(t, a))
}

func TestGateway_PresenceOverwrite(t *testing.T) {
	g := newTestGateway()
	a := g.Connect("conn-a", "A", "Alice")
	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj1"})

	send(g, a, map[string]any{
		"kind": "setPresence", "projectId": "proj1",
		"userId": "u", "username": "name1", "isOnline": true,
	})
	send(g, a, map[string]any{
		"kind": "setPresence", "projectId": "proj1",
		"userId": "u", "username": "name2", "isOnline": false,
	})

	entries := g.presence.RoomPresence("proj1")
	require.Len(t, entries, 1)
	assert.Equal(t, "name2", entries[0].Username)
	assert.False(t, entries[0].IsOnline)
}

func TestGateway_MoveImageAndMoodParams(t *testing.T) {
	g := newTestGateway()
	a := g.Connect("conn-a", "A", "Alice")
	b := g.Connect("conn-b", "B", "Bob")
	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, b, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	drain(t, a)
	drain(t, b)

	send(g, a, map[string]any{
		"kind": "moveImage", "projectId": "proj1",
		"imageId": "img-7", "position": map[string]int{"x": 10, "y": 20}, "userId": "A",
	})
	send(g, a, map[string]any{
		"kind": "updateMoodParams", "projectId": "proj1",
		"moodParams": map[string]string{"energy": "high"}, "userId": "A",
	})
	send(g, a, map[string]any{
		"kind": "updateProject", "projectId": "proj1",
		"updateType": "rename", "updateData": map[string]string{"name": "Autumn"}, "userId": "A",
	})
	send(g, a, map[string]any{
		"kind": "typing", "projectId": "proj1", "isTyping": true, "userId": "A",
	})

	bEvents := drain(t, b)
	require.Len(t, bEvents, 4)
	assert.Equal(t, EventImageMoved, bEvents[0].Kind)
	assert.Equal(t, EventMoodParamsUpdated, bEvents[1].Kind)
	assert.Equal(t, EventProjectUpdated, bEvents[2].Kind)
	assert.Equal(t, EventUserTyping, bEvents[3].Kind)
	assert.Empty(t, drain(t, a))
}

func TestGateway_DisconnectNotifiesAllRooms(t *testing.T) {
	g := newTestGateway()
	a := g.Connect("conn-a", "A", "Alice")
	b := g.Connect("conn-b", "B", "Bob")
	c := g.Connect("conn-c", "C", "Carol")
	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj2"})
	send(g, b, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, c, map[string]any{"kind": "joinProject", "projectId": "proj2"})
	drain(t, a)
	drain(t, b)
	drain(t, c)

	g.Disconnect("conn-a")

	for _, sess := range []*Session{b, c} {
		events := drain(t, sess)
		require.Len(t, events, 1, "session %s", sess.ID)
		assert.Equal(t, EventUserDisconnected, events[0].Kind)
		payload, err := json.Marshal(events[0].Payload)
		require.NoError(t, err)
		assert.Contains(t, string(payload), "conn-a")
	}

	assert.Empty(t, g.registry.RoomsOf("conn-a"))
	assert.Equal(t, 2, g.SessionCount())
}

func TestGateway_DisconnectIdempotent(t *testing.T) {
	g := newTestGateway()
	a := g.Connect("conn-a", "A", "Alice")
	b := g.Connect("conn-b", "B", "Bob")
	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, b, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	drain(t, b)

	g.Disconnect("conn-a")
	g.Disconnect("conn-a")

	events := drain(t, b)
	assert.Len(t, events, 1, "second disconnect must not produce a duplicate broadcast")
}

func TestGateway_DisconnectMarksPresenceOffline(t *testing.T) {
	g := newTestGateway()
	a := g.Connect("conn-a", "A", "Alice")
	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, a, map[string]any{
		"kind": "setPresence", "projectId": "proj1",
		"userId": "A", "username": "Alice", "isOnline": true,
	})

	g.Disconnect("conn-a")

	entry, ok := g.presence.Get("proj1", "A")
	require.True(t, ok)
	assert.False(t, entry.IsOnline, "disconnect flips last-reported presence to offline")
}

func TestGateway_MalformedMessagesDropped(t *testing.T) {
	g := newTestGateway()
	a := g.Connect("conn-a", "A", "Alice")
	b := g.Connect("conn-b", "B", "Bob")
	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, b, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	drain(t, a)
	drain(t, b)

	// Not JSON at all.
	g.HandleMessage("conn-a", []byte("{not json"))
	// Missing project id.
	send(g, a, map[string]any{"kind": "updatePalette", "userId": "A"})
	// Missing required field for the kind.
	send(g, a, map[string]any{"kind": "updatePalette", "projectId": "proj1"})
	send(g, a, map[string]any{"kind": "sendMessage", "projectId": "proj1", "userId": "A"})
	send(g, a, map[string]any{"kind": "typing", "projectId": "proj1", "userId": "A"})
	// Unknown kind.
	send(g, a, map[string]any{"kind": "selfDestruct", "projectId": "proj1"})
	// Unknown session.
	g.HandleMessage("conn-ghost", []byte(`{"kind":"joinProject","projectId":"proj1"}`))

	assert.Empty(t, drain(t, b), "malformed traffic must not produce broadcasts")
}

func TestGateway_MessagesOnlyReachRoomMembers(t *testing.T) {
	g := newTestGateway()
	a := g.Connect("conn-a", "A", "Alice")
	b := g.Connect("conn-b", "B", "Bob")
	outsider := g.Connect("conn-x", "X", "Xavier")
	send(g, a, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, b, map[string]any{"kind": "joinProject", "projectId": "proj1"})
	send(g, outsider, map[string]any{"kind": "joinProject", "projectId": "proj2"})
	drain(t, a)
	drain(t, b)

	send(g, a, map[string]any{
		"kind": "sendMessage", "projectId": "proj1",
		"message": "hi", "userId": "A", "username": "Alice",
	})

	assert.Len(t, drain(t, b), 1)
	assert.Empty(t, drain(t, outsider))
}

func TestGateway_ManySessionsFanOut(t *testing.T) {
	g := newTestGateway()
	sender := g.Connect("conn-0", "U0", "User0")
	send(g, sender, map[string]any{"kind": "joinProject", "projectId": "proj1"})

	var others []*Session
	for i := 1; i <= 10; i++ {
		sess := g.Connect(fmt.Sprintf("conn-%d", i), fmt.Sprintf("U%d", i), "user")
		send(g, sess, map[string]any{"kind": "joinProject", "projectId": "proj1"})
		others = append(others, sess)
	}
	drain(t, sender)
	for _, sess := range others {
		drain(t, sess)
	}

	send(g, sender, map[string]any{
		"kind": "updatePalette", "projectId": "proj1",
		"paletteData": map[string]string{"primaryColor": "#abcdef"}, "userId": "U0",
	})

	for _, sess := range others {
		events := drain(t, sess)
		require.Len(t, events, 1, "session %s", sess.ID)
		assert.Equal(t, EventPaletteUpdated, events[0].Kind)
	}
	assert.Empty(t, drain(t, sender))
}
