package store

import (
	"context"
	"os"
	"testing"

	"toria/internal/models"
)

// Runs against a live server only when TORIA_TEST_REDIS_ADDR is set.
func TestRedisSessionsRoundTrip(t *testing.T) {
	addr := os.Getenv("TORIA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TORIA_TEST_REDIS_ADDR not set")
	}

	client := NewRedisClient(addr, "", 0)
	defer client.Close()

	ctx := context.Background()
	sessions := NewRedisSessions(client, 0)
	device := "test-device-roundtrip"
	defer sessions.DeleteDeviceUser(ctx, device)

	if _, ok, err := sessions.LoadDeviceUser(ctx, device); err != nil || ok {
		t.Fatalf("expected no record, got ok=%v err=%v", ok, err)
	}

	want := models.User{ID: "u1", Email: "a@b.c", DisplayName: "Asha", Token: "tok"}
	if err := sessions.SaveDeviceUser(ctx, device, want); err != nil {
		t.Fatalf("SaveDeviceUser: %v", err)
	}

	got, ok, err := sessions.LoadDeviceUser(ctx, device)
	if err != nil || !ok {
		t.Fatalf("LoadDeviceUser: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}

	if err := sessions.DeleteDeviceUser(ctx, device); err != nil {
		t.Fatalf("DeleteDeviceUser: %v", err)
	}
	if err := sessions.DeleteDeviceUser(ctx, device); err != nil {
		t.Fatalf("second DeleteDeviceUser: %v", err)
	}
}
