package utils

import (
	"context"
	"testing"
)

func TestCorrelationIdRoundTrip(t *testing.T) {
	ctx := SetCorrelationIdInContext(context.Background(), "abc-123")
	got, ok := GetCorrelationIdFromContext(ctx)
	if !ok || got != "abc-123" {
		t.Fatalf("got (%q, %v), want (abc-123, true)", got, ok)
	}

	if got, ok := GetCorrelationIdFromContext(context.Background()); ok {
		t.Fatalf("bare context should carry no correlation id, got %q", got)
	}
}

func TestActorRoundTrip(t *testing.T) {
	ctx := SetActorInContext(context.Background(), "System")
	got, ok := GetActorFromContext(ctx)
	if !ok || got != "System" {
		t.Fatalf("got (%q, %v), want (System, true)", got, ok)
	}
}
