package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestNotesChangedDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.NotesChanged(EventNoteSaved, []int64{7})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: note.saved") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"ids":[7]`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestNotesChanged_StaleThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.NotesChanged(EventNoteSaved, []int64{1})
	b.NotesChanged(EventNotesRemoved, []int64{2, 3})

	time.Sleep(50 * time.Millisecond)
	staleCount := 0
	var changes []string
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, EventListStale) {
				staleCount++
			} else {
				changes = append(changes, s)
			}
		default:
			break loop
		}
	}

	if len(changes) != 2 {
		t.Fatalf("change events = %d, want 2", len(changes))
	}
	if !strings.Contains(changes[1], `"ids":[2,3]`) {
		t.Errorf("removed event payload = %q", changes[1])
	}
	if staleCount != 1 {
		t.Errorf("list.stale events = %d, want 1 (throttled)", staleCount)
	}
}

func TestNotesChanged_NilIDsEncodedAsEmptyList(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.NotesChanged(EventNoteSaved, nil)

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), `"ids":[]`) {
			t.Errorf("payload = %q, want empty ids list", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.NotesChanged(EventNoteSaved, []int64{9})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: note.saved") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestNotesChangedDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < clientBufferLength+6; i++ {
		b.NotesChanged(EventNoteSaved, []int64{int64(i)})
	}
	if b.ClientCount() != 1 {
		t.Errorf("slow client should stay subscribed")
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.NotesChanged(EventNoteSaved, []int64{1})
}
