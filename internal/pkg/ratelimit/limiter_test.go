package ratelimit

import (
	"testing"
	"time"
)

func TestAllowUpToLimit(t *testing.T) {
	l := New(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !l.Allow("ip1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("ip1") {
		t.Fatalf("request over the cap should be denied")
	}
	if l.Allow("ip1") {
		t.Fatalf("denied request must not consume, still denied")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, time.Hour)

	if !l.Allow("ip1") {
		t.Fatalf("first request for ip1 should be allowed")
	}
	if !l.Allow("ip2") {
		t.Fatalf("ip2 should have its own window")
	}
	if l.Allow("ip1") {
		t.Fatalf("ip1 is over its cap")
	}
}

func TestWindowRollover(t *testing.T) {
	l := New(1, 50*time.Millisecond)

	if !l.Allow("ip1") {
		t.Fatalf("first request should be allowed")
	}
	if l.Allow("ip1") {
		t.Fatalf("second request in the window should be denied")
	}

	time.Sleep(80 * time.Millisecond)

	if !l.Allow("ip1") {
		t.Fatalf("request after window expiry should open a fresh window")
	}
}

func TestRefundRestoresUnit(t *testing.T) {
	l := New(2, time.Hour)

	l.Allow("ip1")
	l.Allow("ip1")
	if l.Allow("ip1") {
		t.Fatalf("cap reached, should be denied")
	}

	l.Refund("ip1")
	if !l.Allow("ip1") {
		t.Fatalf("refunded unit should admit one more request")
	}
	if l.Allow("ip1") {
		t.Fatalf("cap reached again")
	}
}

func TestRefundUnknownKeyIsNoop(t *testing.T) {
	l := New(1, time.Hour)

	l.Refund("never-seen")
	if !l.Allow("never-seen") {
		t.Fatalf("first request should be allowed")
	}
	if l.Allow("never-seen") {
		t.Fatalf("refund on an empty key must not create extra budget")
	}
}

func TestRemaining(t *testing.T) {
	l := New(5, time.Hour)

	if got := l.Remaining("ip1"); got != 5 {
		t.Fatalf("fresh key remaining = %d, want 5", got)
	}

	l.Allow("ip1")
	l.Allow("ip1")
	if got := l.Remaining("ip1"); got != 3 {
		t.Fatalf("remaining = %d, want 3", got)
	}
}
