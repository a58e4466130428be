package bus

import (
	"sort"
	"testing"
	"time"
)

func recv(t *testing.T, sub *Subscription) *Message {
	t.Helper()
	select {
	case m, ok := <-sub.Channel():
		if !ok {
			t.Fatal("channel closed")
		}
		return m
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func none(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case m := <-sub.Channel():
		t.Fatalf("unexpected message on %s: %v", m.Topic, m.Payload)
	default:
	}
}

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")
	sub := c.Subscribe(T("sps30", "front", "measurement"))

	c.Publish(&Message{Topic: T("sps30", "front", "measurement"), Payload: "hello"})
	if got := recv(t, sub); got.Payload.(string) != "hello" {
		t.Fatalf("payload = %v", got.Payload)
	}
	c.Publish(&Message{Topic: T("sps30", "back", "measurement"), Payload: "other"})
	none(t, sub)
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	topic := T("sps30", "front", "status")

	c.Publish(&Message{Topic: topic, Payload: "persist", Retained: true})
	if got := recv(t, c.Subscribe(topic)); got.Payload.(string) != "persist" {
		t.Fatalf("retained payload = %v", got.Payload)
	}
	if m, ok := b.Retained(topic); !ok || m.Payload.(string) != "persist" {
		t.Fatalf("Retained = %v, %v", m, ok)
	}

	// nil payload clears it
	c.Publish(&Message{Topic: topic, Retained: true})
	if _, ok := b.Retained(topic); ok {
		t.Fatal("retained value not cleared")
	}
	none(t, c.Subscribe(topic))
}

func TestWildcard_SingleLevel(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("test")
	sub := c.Subscribe(T("sps30", SingleWild, "error"))

	c.Publish(&Message{Topic: T("sps30", "a", "error"), Payload: 1})
	c.Publish(&Message{Topic: T("sps30", "b", "error"), Payload: 2})
	c.Publish(&Message{Topic: T("sps30", "a", "b", "error"), Payload: 3})
	c.Publish(&Message{Topic: T("sps30", "error"), Payload: 4})

	got := []int{recv(t, sub).Payload.(int), recv(t, sub).Payload.(int)}
	if got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v", got)
	}
	none(t, sub)
}

func TestWildcard_MultiLevel(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("test")
	c.Publish(&Message{Topic: T("sps30", "a", "measurement"), Payload: "m", Retained: true})
	c.Publish(&Message{Topic: T("sps30", "a", "status"), Payload: "s", Retained: true})
	c.Publish(&Message{Topic: T("other"), Payload: "x", Retained: true})

	sub := c.Subscribe(T("sps30", MultiWild))
	var got []string
	got = append(got, recv(t, sub).Payload.(string), recv(t, sub).Payload.(string))
	sort.Strings(got)
	if got[0] != "m" || got[1] != "s" {
		t.Fatalf("retained = %v", got)
	}
	none(t, sub)

	c.Publish(&Message{Topic: T("sps30"), Payload: "root"})
	if m := recv(t, sub); m.Payload.(string) != "root" {
		t.Fatalf("parent level not matched: %v", m.Payload)
	}
}

func TestFullQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	sub := c.Subscribe(T("x"))
	for i := 1; i <= 3; i++ {
		c.Publish(&Message{Topic: T("x"), Payload: i})
	}
	if a, b := recv(t, sub).Payload.(int), recv(t, sub).Payload.(int); a != 2 || b != 3 {
		t.Fatalf("got %d, %d; want 2, 3", a, b)
	}
}

func TestUnsubscribeAndDisconnect(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s1 := c.Subscribe(T("x", "y"))
	s2 := c.Subscribe(T("z"))

	s1.Unsubscribe()
	if _, ok := <-s1.Channel(); ok {
		t.Fatal("unsubscribed channel still open")
	}
	if len(b.root.children) != 1 {
		t.Fatalf("trie not pruned: %d root children", len(b.root.children))
	}
	c.Publish(&Message{Topic: T("x", "y"), Payload: 1})

	c.Disconnect()
	if _, ok := <-s2.Channel(); ok {
		t.Fatal("channel open after Disconnect")
	}
	if len(b.root.children) != 0 {
		t.Fatal("trie not empty after Disconnect")
	}
	s2.Unsubscribe() // no double close
}

func TestTopicString(t *testing.T) {
	if s := T("sps30", "front", "measurement").String(); s != "sps30/front/measurement" {
		t.Fatalf("String = %q", s)
	}
}
