package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewDeletedAccountSnapshot(t *testing.T) {
	account := testAccount(t)
	account.VerifyEmail()

	tombstone, err := NewDeletedAccount(account)
	if err != nil {
		t.Fatalf("NewDeletedAccount: %v", err)
	}

	if tombstone.OriginalUUID != account.UUID {
		t.Fatal("tombstone must carry the original uuid")
	}
	if tombstone.OriginalLogin != "tester" || tombstone.OriginalEmail != "tester@example.com" {
		t.Fatalf("unexpected identifiers %q / %q", tombstone.OriginalLogin, tombstone.OriginalEmail)
	}

	wantPurge := tombstone.DeletedAt.Add(DeletedAccountRetention)
	if !tombstone.PurgeAt.Equal(wantPurge) {
		t.Fatalf("purge time %v, want deletion + 60 days (%v)", tombstone.PurgeAt, wantPurge)
	}

	var snapshot map[string]any
	if err := json.Unmarshal([]byte(tombstone.AccountDataJSON), &snapshot); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if snapshot["login"] != "tester" {
		t.Fatalf("snapshot login %v", snapshot["login"])
	}
	if snapshot["passwordHash"] != "hashed:Password123" {
		t.Fatalf("snapshot must retain the password hash, got %v", snapshot["passwordHash"])
	}
}

func TestRestoreAndPurgeAreExactComplements(t *testing.T) {
	cases := []struct {
		name    string
		purgeAt time.Time
	}{
		{"future purge", time.Now().Add(time.Hour)},
		{"past purge", time.Now().Add(-time.Hour)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tombstone := DeletedAccount{PurgeAt: tc.purgeAt}
			if tombstone.CanBeRestored() == tombstone.ShouldBePurged() {
				t.Fatal("CanBeRestored and ShouldBePurged must never agree")
			}
		})
	}
}

func TestPurgeAtBoundaryCountsAsPurgeable(t *testing.T) {
	tombstone := DeletedAccount{PurgeAt: time.Now().Add(-time.Millisecond)}

	if tombstone.CanBeRestored() {
		t.Fatal("elapsed purge time must not allow restore")
	}
	if !tombstone.ShouldBePurged() {
		t.Fatal("elapsed purge time must be purgeable")
	}
}
