package ws

import (
	"encoding/json"
	"testing"
)

func newTestClient(userID uint) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, 8)}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.Send:
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return e
	default:
		t.Fatal("no frame pending")
	}
	return Event{}
}

func TestEmitToRoom(t *testing.T) {
	hub := NewHub()
	a := newTestClient(1)
	b := newTestClient(2)
	hub.Register(a)
	hub.Register(b)
	hub.Join(a, "group_7")
	hub.Join(b, "group_7")

	hub.EmitToRoom("group_7", "group_message:new", map[string]interface{}{"id": 1})

	for _, c := range []*Client{a, b} {
		e := receive(t, c)
		if e.Event != "group_message:new" {
			t.Errorf("event = %q", e.Event)
		}
	}
}

func TestEmitToEmptyRoomIsNoOp(t *testing.T) {
	hub := NewHub()
	// Must not panic or block.
	hub.EmitToRoom("user_99", "bell:updated", nil)
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub := NewHub()
	c := newTestClient(1)
	hub.Register(c)
	hub.Join(c, "user_1")
	hub.Leave(c, "user_1")

	hub.EmitToRoom("user_1", "bell:updated", nil)

	select {
	case <-c.Send:
		t.Fatal("received after leaving the room")
	default:
	}
	if hub.RoomSize("user_1") != 0 {
		t.Errorf("room size = %d, want 0", hub.RoomSize("user_1"))
	}
}

func TestMultipleDevicesSameUser(t *testing.T) {
	hub := NewHub()
	phone := newTestClient(1)
	laptop := newTestClient(1)
	hub.Register(phone)
	hub.Register(laptop)
	hub.Join(phone, "user_1")
	hub.Join(laptop, "user_1")

	hub.EmitToRoom("user_1", "message:new", map[string]interface{}{"id": 5})

	receive(t, phone)
	receive(t, laptop)
	if hub.RoomSize("user_1") != 2 {
		t.Errorf("room size = %d, want 2", hub.RoomSize("user_1"))
	}
}

func TestCloseUnregisters(t *testing.T) {
	hub := NewHub()
	c := newTestClient(1)
	hub.Register(c)
	hub.Join(c, "user_1")
	hub.Join(c, "group_7")

	c.Close()
	c.Close() // second close is a no-op

	if hub.ClientCount() != 0 {
		t.Errorf("clients = %d, want 0", hub.ClientCount())
	}
	if hub.RoomSize("user_1") != 0 || hub.RoomSize("group_7") != 0 {
		t.Error("closed client still present in rooms")
	}
}

func TestSendToClosedClientIsDropped(t *testing.T) {
	c := newTestClient(1)
	c.Close()
	// Must not panic on the closed channel.
	c.trySend([]byte(`{}`))
}

func TestEmitDuringCloseDoesNotPanic(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			c := newTestClient(1)
			hub.Register(c)
			hub.Join(c, "user_1")
			c.Close()
		}
	}()
	for i := 0; i < 500; i++ {
		hub.EmitToRoom("user_1", "bell:updated", nil)
	}
	<-done
}

func TestFullSendBufferDropsFrame(t *testing.T) {
	hub := NewHub()
	c := &Client{UserID: 1, Send: make(chan []byte)} // unbuffered, nobody reading
	hub.Register(c)
	hub.Join(c, "user_1")

	// Must not block.
	hub.EmitToRoom("user_1", "bell:updated", nil)
}
