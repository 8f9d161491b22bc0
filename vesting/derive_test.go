package vesting_test

import (
	"testing"

	"github.com/warp/vesting-engine/vesting"
)

// Known vectors: derivation must never change across releases, or every
// deployed schedule loses its vault.
func TestDerive_KnownVectors(t *testing.T) {
	admin := addr(0x11)
	wallet := addr(0x22)
	asset := addr(0x33)

	id := vesting.ScheduleIDFor(admin)
	cases := []struct {
		name string
		got  vesting.Address
		want string
	}{
		{"schedule id", id, "9bjX9Qf2T1u7DbVfijD8mqYruepeiSUqCF1prNRQaDyy"},
		{"vault", vesting.VaultFor(id), "BLzYnog5Zjf88YX7KtrAvamU3GvgwYpx6yvJXqXFr6A2"},
		{"authority", vesting.AuthorityFor(id), "CTaUbrQBEo6M5eutEnfyjjaLhmHqt1mvmUvwi8BYGXBY"},
		{"holding", vesting.HoldingAccountFor(wallet, asset), "HmWWEFcAnFEdWrr8pYVmK9cGMGCScUA9fVfLqEz42eDB"},
	}
	for _, c := range cases {
		if c.got.String() != c.want {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
}

func TestDerive_LabelsAreDistinct(t *testing.T) {
	admin := addr(0x11)
	id := vesting.ScheduleIDFor(admin)

	seen := map[vesting.Address]string{admin: "admin"}
	for name, a := range map[string]vesting.Address{
		"id":        id,
		"vault":     vesting.VaultFor(id),
		"authority": vesting.AuthorityFor(id),
	} {
		if prev, dup := seen[a]; dup {
			t.Fatalf("%s collides with %s", name, prev)
		}
		seen[a] = name
	}
}

func TestParseAddress(t *testing.T) {
	a := addr(0x42)
	parsed, err := vesting.ParseAddress(a.String())
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if parsed != a {
		t.Errorf("round trip mismatch")
	}

	if _, err := vesting.ParseAddress("not-base58-0OIl"); err == nil {
		t.Errorf("invalid base58 accepted")
	}
	if _, err := vesting.ParseAddress("abc"); err == nil {
		t.Errorf("short address accepted")
	}
}
