package network

import (
	"testing"

	"github.com/nkprasad12/dnd/pkg/api"
)

func recv(t *testing.T, ch chan api.ServerEvent) api.ServerEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	default:
		t.Fatal("Expected an event, got none")
		return api.ServerEvent{}
	}
}

func TestBroadcasterSendTo(t *testing.T) {
	hub := NewBroadcaster()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.SendTo("alice", api.ServerEvent{Event: api.EventBoardGetResponse})

	if ev := recv(t, alice); ev.Event != api.EventBoardGetResponse {
		t.Errorf("Wrong event: %s", ev.Event)
	}
	select {
	case ev := <-bob:
		t.Errorf("bob received someone else's reply: %+v", ev)
	default:
	}
}

func TestBroadcasterBroadcast(t *testing.T) {
	hub := NewBroadcaster()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.Broadcast(api.ServerEvent{Event: api.EventBoardUpdate})

	if ev := recv(t, alice); ev.Event != api.EventBoardUpdate {
		t.Errorf("Wrong event for alice: %s", ev.Event)
	}
	if ev := recv(t, bob); ev.Event != api.EventBoardUpdate {
		t.Errorf("Wrong event for bob: %s", ev.Event)
	}
}

func TestBroadcasterBroadcastExcept(t *testing.T) {
	hub := NewBroadcaster()
	alice := hub.Register("alice")
	bob := hub.Register("bob")

	hub.BroadcastExcept("alice", api.ServerEvent{Event: api.EventBoardUpdate})

	// Автор не получает собственный дифф
	select {
	case ev := <-alice:
		t.Errorf("Sender received its own event: %+v", ev)
	default:
	}
	if ev := recv(t, bob); ev.Event != api.EventBoardUpdate {
		t.Errorf("Wrong event for bob: %s", ev.Event)
	}
}

func TestBroadcasterUnregister(t *testing.T) {
	hub := NewBroadcaster()
	ch := hub.Register("alice")

	hub.Unregister("alice")

	if hub.HasSubscriber("alice") {
		t.Error("Subscriber still registered after unregister")
	}
	// Канал закрыт, читатель выходит из цикла
	if _, ok := <-ch; ok {
		t.Error("Channel not closed after unregister")
	}
}

func TestBroadcasterReRegisterClosesOldChannel(t *testing.T) {
	hub := NewBroadcaster()
	old := hub.Register("alice")
	fresh := hub.Register("alice")

	if _, ok := <-old; ok {
		t.Error("Old channel not closed on re-register")
	}
	hub.SendTo("alice", api.ServerEvent{Event: api.EventBoardUpdate})
	if ev := recv(t, fresh); ev.Event != api.EventBoardUpdate {
		t.Errorf("Fresh channel did not receive: %s", ev.Event)
	}
	if n := hub.SubscriberCount(); n != 1 {
		t.Errorf("Expected 1 subscriber, got %d", n)
	}
}

func TestBroadcasterSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewBroadcaster()
	hub.Register("slow") // канал никто не читает

	// Переполняем буфер: рассылка не должна зависнуть
	for i := 0; i < 200; i++ {
		hub.Broadcast(api.ServerEvent{Event: api.EventBoardUpdate})
	}
}
