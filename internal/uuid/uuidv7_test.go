package uuid

import "testing"

func TestNew(t *testing.T) {
	t.Run("produces valid time-ordered ids", func(t *testing.T) {
		a := New()
		b := New()
		if !IsValid(a) || !IsValid(b) {
			t.Fatalf("expected valid UUIDs, got %q and %q", a, b)
		}
		if a[14] != '7' {
			t.Errorf("expected version 7, got %q", a)
		}
		if a == b {
			t.Error("expected distinct ids")
		}
	})

	t.Run("tokens are distinct", func(t *testing.T) {
		if NewToken() == NewToken() {
			t.Error("expected distinct tokens")
		}
	})

	t.Run("parse rejects garbage", func(t *testing.T) {
		if _, err := Parse("not-a-uuid"); err == nil {
			t.Error("expected error")
		}
	})
}
