package services

import (
	"testing"
	"time"

	"auction-stream/pkg/logger"
)

func newTestSession(room *Room, conn *fakeConn, identity string) *ClientSession {
	return NewClientSession(conn, room, nil, identity, logger.NewNop())
}

func join(s *ClientSession, role, username string) {
	payload := `{"type":"join","role":"` + role + `"`
	if username != "" {
		payload += `,"username":"` + username + `"`
	}
	payload += `}`
	s.HandleMessage([]byte(payload))
}

func TestJoinViewerReceivesSnapshot(t *testing.T) {
	room, _ := newTestRoom()
	room.JoinStreamer(newFakeConn("s1"))
	room.Chat("earlier", "hello")
	room.PlaceBid("earlier", 4)

	conn := newFakeConn("v1")
	session := newTestSession(room, conn, "")
	join(session, "viewer", "watcher")

	types := conn.eventTypes()
	// viewers broadcast from registration, then the private snapshot:
	// price, live_status, chat replay, bid replay.
	want := []string{"viewers", "price", "live_status", "chat", "bid"}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event types = %v, want %v", types, want)
		}
	}

	events := conn.sent()
	if events[1]["current"].(float64) != 4 {
		t.Errorf("price = %v, want 4", events[1]["current"])
	}
	if events[2]["is_live"] != true {
		t.Error("live_status = false, want true")
	}
}

func TestJoinStreamerReceivesSnapshot(t *testing.T) {
	room, registry := newTestRoom()
	room.Chat("earlier", "hello")

	conn := newFakeConn("s1")
	session := newTestSession(room, conn, "")
	join(session, "streamer", "")

	if registry.Streamer() == nil {
		t.Fatal("streamer not registered")
	}

	types := conn.eventTypes()
	// live_status from the broadcast (streamer included), then price,
	// viewer count, and replay.
	want := []string{"live_status", "price", "viewers", "chat"}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event types = %v, want %v", types, want)
		}
	}
}

func TestRepeatJoinResyncs(t *testing.T) {
	room, registry := newTestRoom()
	conn := newFakeConn("v1")
	session := newTestSession(room, conn, "")

	join(session, "viewer", "watcher")
	conn.reset()
	// A later join with a different role keeps the original role and
	// re-runs the side effects.
	join(session, "streamer", "")

	if registry.HasStreamer() {
		t.Error("repeat join changed the assigned role")
	}
	if got := conn.eventsOfType("price"); len(got) != 1 {
		t.Errorf("re-sync sent %d price events, want 1", len(got))
	}
}

func TestMalformedPayloadsAreIgnored(t *testing.T) {
	room, _ := newTestRoom()
	conn := newFakeConn("v1")
	session := newTestSession(room, conn, "")
	join(session, "viewer", "watcher")
	conn.reset()

	payloads := []string{
		`{not json`,
		`[]`,
		`{"type":"unknown_event"}`,
		`{"type":"bid","amount":"abc"}`,
		`{"type":"bid","amount":5.5}`,
		`{"type":"bid"}`,
		`{"type":"chat","text":"   "}`,
		`{"type":"set_username","username":"  "}`,
	}
	for _, payload := range payloads {
		session.HandleMessage([]byte(payload))
	}

	if got := conn.sent(); len(got) != 0 {
		t.Errorf("malformed payloads produced %d events: %v", len(got), got)
	}
	if got := room.CurrentPrice(); got != 1 {
		t.Errorf("price changed to %d on invalid bids", got)
	}
}

func TestBidViaProtocol(t *testing.T) {
	room, _ := newTestRoom()
	conn := newFakeConn("v1")
	session := newTestSession(room, conn, "")
	join(session, "viewer", "bidder")
	conn.reset()

	session.HandleMessage([]byte(`{"type":"bid","amount":7}`))

	if got := room.CurrentPrice(); got != 7 {
		t.Fatalf("price = %d, want 7", got)
	}
	bids := conn.eventsOfType("bid")
	if len(bids) != 1 || bids[0]["username"] != "bidder" {
		t.Errorf("bid broadcast = %v, want username bidder", bids)
	}
}

func TestBuyNowViaProtocol(t *testing.T) {
	room, _ := newTestRoom()
	conn := newFakeConn("v1")
	session := newTestSession(room, conn, "")
	join(session, "viewer", "buyer")
	conn.reset()

	session.HandleMessage([]byte(`{"type":"buy_now"}`))

	if got := room.CurrentPrice(); got != 2 {
		t.Fatalf("price = %d, want 2", got)
	}
	bids := conn.eventsOfType("bid")
	if len(bids) != 1 || bids[0]["amount"].(float64) != 2 {
		t.Errorf("buy_now bid = %v, want amount 2", bids)
	}
}

func TestFrameRequiresStreamerRole(t *testing.T) {
	room, _ := newTestRoom()
	watcher := newFakeConn("v1")
	room.JoinViewer(watcher, "watcher")

	viewerConn := newFakeConn("v2")
	viewerSession := newTestSession(room, viewerConn, "")
	join(viewerSession, "viewer", "sneaky")
	watcher.reset()

	viewerSession.HandleMessage([]byte(`{"type":"frame","data":"bogus"}`))
	if got := watcher.eventsOfType("frame"); len(got) != 0 {
		t.Fatalf("viewer-sent frame was broadcast %d times", len(got))
	}

	streamerConn := newFakeConn("s1")
	streamerSession := newTestSession(room, streamerConn, "")
	join(streamerSession, "streamer", "")
	watcher.reset()
	streamerConn.reset()

	streamerSession.HandleMessage([]byte(`{"type":"frame","data":"jpegdata"}`))
	if got := watcher.eventsOfType("frame"); len(got) != 1 {
		t.Fatalf("streamer frame broadcast %d times, want 1", len(got))
	}
	if got := streamerConn.eventsOfType("frame"); len(got) != 0 {
		t.Error("streamer received its own frame")
	}

	// Empty frames are dropped.
	watcher.reset()
	streamerSession.HandleMessage([]byte(`{"type":"frame","data":""}`))
	if got := watcher.eventsOfType("frame"); len(got) != 0 {
		t.Error("empty frame was broadcast")
	}
}

func TestSetUsernameAppliesToLaterChat(t *testing.T) {
	room, registry := newTestRoom()
	conn := newFakeConn("v1")
	session := newTestSession(room, conn, "")
	join(session, "viewer", "Anon")

	session.HandleMessage([]byte(`{"type":"set_username","username":"Bob"}`))
	conn.reset()
	session.HandleMessage([]byte(`{"type":"chat","text":"hi"}`))

	chats := conn.eventsOfType("chat")
	if len(chats) != 1 || chats[0]["username"] != "Bob" || chats[0]["text"] != "hi" {
		t.Errorf("chat broadcast = %v, want username Bob text hi", chats)
	}
	if got := registry.ViewerName(conn); got != "Bob" {
		t.Errorf("registry name = %q, want Bob", got)
	}
}

func TestPerMessageUsernameBeatsJoinName(t *testing.T) {
	room, _ := newTestRoom()
	conn := newFakeConn("v1")
	session := newTestSession(room, conn, "")
	join(session, "viewer", "JoinName")
	conn.reset()

	session.HandleMessage([]byte(`{"type":"chat","username":"PerMessage","text":"hi"}`))

	chats := conn.eventsOfType("chat")
	if len(chats) != 1 || chats[0]["username"] != "PerMessage" {
		t.Errorf("chat username = %v, want PerMessage", chats)
	}
}

func TestIdentityOverridesClientUsername(t *testing.T) {
	room, _ := newTestRoom()
	conn := newFakeConn("v1")
	session := newTestSession(room, conn, "Alice")
	join(session, "viewer", "Impostor")
	conn.reset()

	session.HandleMessage([]byte(`{"type":"chat","username":"Mallory","text":"hi"}`))

	chats := conn.eventsOfType("chat")
	if len(chats) != 1 || chats[0]["username"] != "Alice" {
		t.Errorf("chat username = %v, want identity-bound Alice", chats)
	}
}

func TestChatTextIsTrimmed(t *testing.T) {
	room, _ := newTestRoom()
	conn := newFakeConn("v1")
	session := newTestSession(room, conn, "")
	join(session, "viewer", "talker")
	conn.reset()

	session.HandleMessage([]byte(`{"type":"chat","text":"  hello  "}`))

	chats := conn.eventsOfType("chat")
	if len(chats) != 1 || chats[0]["text"] != "hello" {
		t.Errorf("chat text = %v, want trimmed hello", chats)
	}
}

func TestDisconnectBroadcastsViewerCount(t *testing.T) {
	room, _ := newTestRoom()
	stayer := newFakeConn("v1")
	room.JoinViewer(stayer, "stayer")

	conn := newFakeConn("v2")
	session := newTestSession(room, conn, "")
	join(session, "viewer", "leaver")
	stayer.reset()

	session.Disconnect()

	counts := stayer.eventsOfType("viewers")
	if len(counts) != 1 || counts[0]["count"].(float64) != 1 {
		t.Errorf("viewer count after disconnect = %v, want single count=1", counts)
	}
}

func TestUnjoinedDisconnectIsHarmless(t *testing.T) {
	room, _ := newTestRoom()
	stayer := newFakeConn("v1")
	room.JoinViewer(stayer, "stayer")

	conn := newFakeConn("v2")
	session := newTestSession(room, conn, "")
	stayer.reset()

	session.Disconnect()

	if got := room.ViewerCount(); got != 1 {
		t.Errorf("ViewerCount() = %d, want 1", got)
	}
	// Still rebroadcasts the count, best-effort.
	if counts := stayer.eventsOfType("viewers"); len(counts) != 1 {
		t.Errorf("got %d viewer-count broadcasts, want 1", len(counts))
	}
}

func TestStreamStartNotificationFiresOnIdleRoomOnly(t *testing.T) {
	room, _ := newTestRoom()
	notifier := newFakeNotifier()

	first := NewClientSession(newFakeConn("s1"), room, notifier, "", logger.NewNop())
	join(first, "streamer", "")
	if !notifier.waitForCall(time.Second) {
		t.Fatal("no notification after streamer joined idle room")
	}

	// Takeover while live is a reconnect, not a new stream.
	second := NewClientSession(newFakeConn("s2"), room, notifier, "", logger.NewNop())
	join(second, "streamer", "")
	if notifier.waitForCall(50 * time.Millisecond) {
		t.Error("notification fired on streamer takeover")
	}
}
