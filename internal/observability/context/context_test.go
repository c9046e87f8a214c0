package context

import (
	stdcontext "context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(stdcontext.Background(), " req-1 ")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := RequestIDFromContext(WithRequestID(stdcontext.Background(), "  ")); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}

func TestActorRoundTrip(t *testing.T) {
	actorType, actorID := ActorFromContext(stdcontext.Background())
	if actorType != "" || actorID != "" {
		t.Fatalf("expected empty actor")
	}

	ctx := WithActor(stdcontext.Background(), "user", "u-1")
	actorType, actorID = ActorFromContext(ctx)
	if actorType != "user" || actorID != "u-1" {
		t.Fatalf("unexpected actor %s/%s", actorType, actorID)
	}
}
