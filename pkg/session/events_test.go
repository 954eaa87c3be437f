package session

import (
	"context"
	"sync"
	"testing"
)

func TestBusAcceptsSingleSubscriber(t *testing.T) {
	bus := NewBus()
	if err := bus.Subscribe(func(context.Context, Event) {}); err != nil {
		t.Fatalf("first subscribe failed: %v", err)
	}
	if err := bus.Subscribe(func(context.Context, Event) {}); err != ErrAlreadySubscribed {
		t.Fatalf("expected ErrAlreadySubscribed, got %v", err)
	}
	if err := NewBus().Subscribe(nil); err == nil {
		t.Fatalf("nil handler should be rejected")
	}
}

func TestBusPublishWithoutSubscriber(t *testing.T) {
	if NewBus().Publish(context.Background(), Event{SessionID: "sid"}) {
		t.Fatalf("publish without subscriber should report false")
	}
}

func TestGuardPublishesOncePerRequest(t *testing.T) {
	bus := NewBus()
	var (
		mu     sync.Mutex
		events []Event
	)
	if err := bus.Subscribe(func(_ context.Context, evt Event) {
		mu.Lock()
		events = append(events, evt)
		mu.Unlock()
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	guard := NewGuard("sid-1", "/rooftop/consumption", "/login")
	ctx := WithGuard(context.Background(), guard)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			GuardFromContext(ctx).Expire(ctx, bus)
		}()
	}
	wg.Wait()

	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].SessionID != "sid-1" || events[0].Path != "/rooftop/consumption" {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if events[0].At.IsZero() {
		t.Fatalf("event time should be stamped")
	}
	if !guard.Fired() {
		t.Fatalf("guard should report fired")
	}
}

func TestGuardSilentOnLoginRoute(t *testing.T) {
	bus := NewBus()
	called := false
	_ = bus.Subscribe(func(context.Context, Event) { called = true })

	guard := NewGuard("sid", "/login/", "/login")
	if !guard.OnLoginRoute() {
		t.Fatalf("trailing slash should still match login route")
	}
	if guard.Expire(context.Background(), bus) {
		t.Fatalf("login route must not publish")
	}
	if called || guard.Fired() {
		t.Fatalf("handler should not run on login route")
	}
}

func TestNilGuardIsSafe(t *testing.T) {
	var g *Guard
	if g.Expire(context.Background(), NewBus()) || g.Fired() || g.OnLoginRoute() {
		t.Fatalf("nil guard should be inert")
	}
	if GuardFromContext(context.Background()) != nil {
		t.Fatalf("expected no guard in empty context")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := WithSessionID(context.Background(), "sid")
	if SessionIDFromContext(ctx) != "sid" {
		t.Fatalf("session id not stored")
	}
	if TokenFromContext(ctx) != "" {
		t.Fatalf("expected no token")
	}
	ctx = WithCredential(ctx, &Credential{Token: "tok"})
	if TokenFromContext(ctx) != "tok" {
		t.Fatalf("token not stored")
	}
}
