package api

import (
	"encoding/json"
	"testing"
	"time"
)

func TestClientSubscriptions(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil)

	if c.IsSubscribed(ChannelReports) {
		t.Error("new client should have no subscriptions")
	}

	c.Subscribe(ChannelReports, ChannelAudit)
	if !c.IsSubscribed(ChannelReports) || !c.IsSubscribed(ChannelAudit) {
		t.Error("subscriptions not recorded")
	}

	c.Unsubscribe(ChannelAudit)
	if c.IsSubscribed(ChannelAudit) {
		t.Error("unsubscribe did not remove channel")
	}
	if !c.IsSubscribed(ChannelReports) {
		t.Error("unsubscribe removed the wrong channel")
	}
}

func TestBroadcastToChannel(t *testing.T) {
	hub := NewHub()

	subscribed := NewClient(hub, nil)
	subscribed.Subscribe(ChannelReports)
	other := NewClient(hub, nil)

	hub.clients[subscribed] = true
	hub.clients[other] = true

	err := hub.BroadcastReportCompleted(&ReportCompletedData{
		JobID:     "job-1",
		RecordID:  "an-1",
		FileName:  "check-analysis-an-1.pdf",
		PageCount: 2,
		RiskScore: 85.5,
	})
	if err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}

	select {
	case raw := <-subscribed.send:
		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("broadcast payload is not JSON: %v", err)
		}
		if msg.Type != EventTypeReportCompleted {
			t.Errorf("event type = %q", msg.Type)
		}
	default:
		t.Fatal("subscribed client received nothing")
	}

	select {
	case <-other.send:
		t.Error("unsubscribed client received a reports event")
	default:
	}
}

func TestHandleSubscribeMessage(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil)

	raw, _ := json.Marshal(WSMessage{
		Type:     EventTypeSubscribe,
		Channels: []string{ChannelReports, "bogus"},
	})
	c.handleMessage(raw)

	if !c.IsSubscribed(ChannelReports) {
		t.Error("valid channel not subscribed")
	}
	if c.IsSubscribed("bogus") {
		t.Error("unknown channel accepted")
	}
}

func TestHandlePing(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil)

	raw, _ := json.Marshal(WSMessage{Type: EventTypePing})
	c.handleMessage(raw)

	select {
	case data := <-c.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("pong is not JSON: %v", err)
		}
		if msg.Type != EventTypePong {
			t.Errorf("reply type = %q, want pong", msg.Type)
		}
	default:
		t.Fatal("no pong reply")
	}
}

func TestHubClientCount(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := NewClient(hub, nil)
	hub.register <- c

	// The hub records the client after consuming the register send.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want 1", hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
