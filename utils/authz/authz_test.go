package authz

import (
	"context"
	"testing"
)

func TestCanMutate(t *testing.T) {
	tests := []struct {
		name    string
		actor   Identity
		ownerID string
		want    bool
	}{
		{"owner may mutate", Identity{UserID: "abc"}, "abc", true},
		{"non-owner may not", Identity{UserID: "abc"}, "def", false},
		{"admin may mutate anything", Identity{UserID: "abc", IsAdmin: true}, "def", true},
		{"admin owner may mutate", Identity{UserID: "abc", IsAdmin: true}, "abc", true},
		{"empty actor may not", Identity{}, "def", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMutate(tt.actor, tt.ownerID); got != tt.want {
				t.Errorf("CanMutate(%+v, %q) = %v, want %v", tt.actor, tt.ownerID, got, tt.want)
			}
		})
	}
}

func TestIdentityContextRoundTrip(t *testing.T) {
	id := Identity{UserID: "abc", IsAdmin: true}
	ctx := WithIdentity(context.Background(), id)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("FromContext returned ok=false after WithIdentity")
	}
	if got != id {
		t.Errorf("FromContext = %+v, want %+v", got, id)
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext returned ok=true on an empty context")
	}
}
