package client

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/adnankhan0111/StrangerMeet/internal/protocol"
)

func TestHandlerRoutesNotifications(t *testing.T) {
	in := make(chan *protocol.Message, 8)
	h := newHandler(in)
	go h.Start()

	in <- &protocol.Message{Type: protocol.TypePartnerFound, Payload: map[string]any{"partnerId": "p-1"}}
	in <- &protocol.Message{Type: protocol.TypeTextMessage, Payload: "hi"}
	in <- &protocol.Message{Type: protocol.TypeUpdateQueue, Payload: json.Number("3")}
	in <- &protocol.Message{Type: protocol.TypeUpdateUserCount, Payload: int8(5)}
	in <- &protocol.Message{Type: protocol.TypePartnerDisconnected}
	in <- &protocol.Message{Type: "something-new"}
	close(in)

	if got := <-h.PartnerFound; got != "p-1" {
		t.Errorf("PartnerFound = %q, want p-1", got)
	}
	if got := <-h.TextMessage; got != "hi" {
		t.Errorf("TextMessage = %v, want hi", got)
	}
	<-h.PartnerLeft

	select {
	case <-h.Closed:
	case <-time.After(time.Second):
		t.Fatal("handler did not stop after the stream closed")
	}
	if got := <-h.QueueLength; got != 3 {
		t.Errorf("QueueLength = %d, want 3", got)
	}
	if got := <-h.OnlineCount; got != 5 {
		t.Errorf("OnlineCount = %d, want 5", got)
	}
}

func TestOfferKeepsLatest(t *testing.T) {
	ch := make(chan int, 1)
	offer(ch, 1)
	offer(ch, 2)
	if got := <-ch; got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

func TestPartnerID(t *testing.T) {
	if got := partnerID(protocol.PartnerFound{PartnerID: "x"}); got != "x" {
		t.Errorf("partnerID(struct) = %q", got)
	}
	if got := partnerID("nonsense"); got != "" {
		t.Errorf("partnerID(string) = %q", got)
	}
}

func TestSendBeforeConnect(t *testing.T) {
	c := New("ws://localhost:1/ws", protocol.JSON)
	if err := c.Send(&protocol.Message{Type: protocol.TypeJoinTextQueue}); err != ErrNotConnected {
		t.Fatalf("Send error = %v, want ErrNotConnected", err)
	}
	c.Close()
	c.Close()
}

func TestHandlerStopUnblocksPendingDelivery(t *testing.T) {
	in := make(chan *protocol.Message, 4)
	h := newHandler(in)
	go h.Start()

	// The first partner-found fills the buffer; nobody reads the second.
	in <- &protocol.Message{Type: protocol.TypePartnerFound, Payload: map[string]any{"partnerId": "p-1"}}
	in <- &protocol.Message{Type: protocol.TypePartnerFound, Payload: map[string]any{"partnerId": "p-2"}}
	in <- &protocol.Message{Type: protocol.TypePartnerDisconnected}

	h.Stop()
	h.Stop()
	select {
	case <-h.Closed:
	case <-time.After(time.Second):
		t.Fatal("handler still blocked after Stop")
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{json.Number("42"), 42},
		{json.Number("2.9"), 2},
		{float64(7), 7},
		{uint16(9), 9},
		{"nope", 0},
	}
	for _, tt := range tests {
		if got := toInt(tt.in); got != tt.want {
			t.Errorf("toInt(%#v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
