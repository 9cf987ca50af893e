package websocket

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestHub_SendToUser_OnlyTargetsThatUser(t *testing.T) {
	// Arrange
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	alice := &Client{id: "a", hub: hub, send: make(chan []byte, 1), userID: "alice"}
	bob := &Client{id: "b", hub: hub, send: make(chan []byte, 1), userID: "bob"}
	hub.register <- alice
	hub.register <- bob

	// Act
	hub.SendToUser("alice", []byte(`{"type":"agenda.event.created"}`))

	// Assert
	select {
	case msg := <-alice.send:
		if string(msg) != `{"type":"agenda.event.created"}` {
			t.Errorf("unexpected message %s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("alice did not receive the message")
	}
	select {
	case msg := <-bob.send:
		t.Errorf("bob should not receive %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Connections(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	c1 := &Client{id: "1", hub: hub, send: make(chan []byte, 1), userID: "u"}
	c2 := &Client{id: "2", hub: hub, send: make(chan []byte, 1), userID: "u"}
	hub.register <- c1
	hub.register <- c2
	hub.unregister <- c1

	// a further register round-trip guarantees the unregister was processed
	hub.register <- &Client{id: "3", hub: hub, send: make(chan []byte, 1), userID: "other"}

	if n := hub.Connections("u"); n != 1 {
		t.Errorf("expected 1 connection, got %d", n)
	}
}
