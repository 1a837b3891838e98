package otp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/gkash/gkash_api/internal/logging"
	"github.com/gkash/gkash_api/internal/notification"
)

const phone = "0712345678"

func setupGate(t *testing.T) (*Gate, *miniredis.Miniredis, *notification.MemoryNotifier) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	notifier := &notification.MemoryNotifier{}
	gate := NewGate(client, notifier, 5*time.Minute, logging.Discard())
	gate.generate = func() (string, error) { return "123456", nil }
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return gate, mr, notifier
}

func TestSendAndCheck(t *testing.T) {
	gate, _, notifier := setupGate(t)
	ctx := context.Background()

	if err := gate.Send(ctx, phone); err != nil {
		t.Fatalf("send: %v", err)
	}
	msg, ok := notifier.Last(phone)
	if !ok || !strings.Contains(msg.Body, "123456") {
		t.Fatalf("expected code delivered, got %+v", msg)
	}

	if ok, err := gate.Check(ctx, phone, "000000", nil); err != nil || ok {
		t.Fatalf("wrong code accepted: ok=%v err=%v", ok, err)
	}
	if ok, err := gate.Check(ctx, phone, "123456", nil); err != nil || !ok {
		t.Fatalf("expected match: ok=%v err=%v", ok, err)
	}
	if ok, _ := gate.Check(ctx, phone, "123456", nil); ok {
		t.Fatalf("code must be single use")
	}
}

func TestCheckExpiredCode(t *testing.T) {
	gate, mr, _ := setupGate(t)
	ctx := context.Background()

	if err := gate.Send(ctx, phone); err != nil {
		t.Fatalf("send: %v", err)
	}
	mr.FastForward(6 * time.Minute)

	if ok, err := gate.Check(ctx, phone, "123456", nil); err != nil || ok {
		t.Fatalf("expired code accepted: ok=%v err=%v", ok, err)
	}
}

func TestCheckBurnsAfterMaxAttempts(t *testing.T) {
	gate, mr, _ := setupGate(t)
	ctx := context.Background()

	if err := gate.Send(ctx, phone); err != nil {
		t.Fatalf("send: %v", err)
	}
	for i := 0; i < MaxAttempts; i++ {
		if ok, _ := gate.Check(ctx, phone, "999999", nil); ok {
			t.Fatalf("wrong code accepted")
		}
	}
	if ok, _ := gate.Check(ctx, phone, "123456", nil); ok {
		t.Fatalf("code should be burned after %d misses", MaxAttempts)
	}
	if mr.Exists(codeKey(phone)) {
		t.Fatalf("burned code still stored")
	}
}

func TestResendResetsAttempts(t *testing.T) {
	gate, _, _ := setupGate(t)
	ctx := context.Background()

	_ = gate.Send(ctx, phone)
	for i := 0; i < MaxAttempts; i++ {
		_, _ = gate.Check(ctx, phone, "999999", nil)
	}
	if err := gate.Send(ctx, phone); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if ok, err := gate.Check(ctx, phone, "123456", nil); err != nil || !ok {
		t.Fatalf("expected fresh code to match: ok=%v err=%v", ok, err)
	}
}

func TestCheckKeepsCodeWhenCommitFails(t *testing.T) {
	gate, mr, _ := setupGate(t)
	ctx := context.Background()

	if err := gate.Send(ctx, phone); err != nil {
		t.Fatalf("send: %v", err)
	}
	storeDown := errors.New("store unavailable")
	ok, err := gate.Check(ctx, phone, "123456", func() error { return storeDown })
	if ok || !errors.Is(err, storeDown) {
		t.Fatalf("expected commit error, got ok=%v err=%v", ok, err)
	}
	if !mr.Exists(codeKey(phone)) {
		t.Fatalf("code must survive a failed commit")
	}

	committed := 0
	ok, err = gate.Check(ctx, phone, "123456", func() error {
		committed++
		return nil
	})
	if err != nil || !ok || committed != 1 {
		t.Fatalf("expected retry to match and commit once: ok=%v err=%v commits=%d", ok, err, committed)
	}
	if mr.Exists(codeKey(phone)) {
		t.Fatalf("committed code must be consumed")
	}
}

func TestCheckSkipsCommitOnMismatch(t *testing.T) {
	gate, _, _ := setupGate(t)
	ctx := context.Background()

	if err := gate.Send(ctx, phone); err != nil {
		t.Fatalf("send: %v", err)
	}
	ok, err := gate.Check(ctx, phone, "654321", func() error {
		t.Fatalf("commit must not run for a wrong code")
		return nil
	})
	if ok || err != nil {
		t.Fatalf("wrong code accepted: ok=%v err=%v", ok, err)
	}
}

func TestRandomCodeFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := randomCode()
		if err != nil {
			t.Fatalf("random code: %v", err)
		}
		if len(code) != CodeLength || strings.Trim(code, "0123456789") != "" {
			t.Fatalf("bad code %q", code)
		}
	}
}
