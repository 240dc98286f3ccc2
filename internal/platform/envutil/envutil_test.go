package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("ZV_TEST_DURATION", "90s")
	if got := Duration("ZV_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Fatalf("got %v", got)
	}
	t.Setenv("ZV_TEST_DURATION", "45")
	if got := Duration("ZV_TEST_DURATION", time.Second); got != 45*time.Second {
		t.Fatalf("got %v", got)
	}
	t.Setenv("ZV_TEST_DURATION", "soon")
	if got := Duration("ZV_TEST_DURATION", time.Second); got != time.Second {
		t.Fatalf("got %v", got)
	}
}

func TestBoolAndInt(t *testing.T) {
	t.Setenv("ZV_TEST_BOOL", "off")
	if Bool("ZV_TEST_BOOL", true) {
		t.Fatalf("expected false")
	}
	t.Setenv("ZV_TEST_INT", "x")
	if got := Int("ZV_TEST_INT", 7); got != 7 {
		t.Fatalf("got %d", got)
	}
}
