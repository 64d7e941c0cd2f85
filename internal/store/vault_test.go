package store

import (
	"errors"
	"testing"
)

func testVault(t *testing.T) *VaultStore {
	t.Helper()
	v, err := NewVaultStore(testDB(t), "phoenix-eternal-soul-key")
	if err != nil {
		t.Fatalf("NewVaultStore: %v", err)
	}
	return v
}

func TestVaultRoundTrip(t *testing.T) {
	v := testVault(t)

	tests := []struct {
		ns    Namespace
		key   string
		value string
	}{
		{Knowledge, "fact:go", "Go compiles fast"},
		{Operational, "task:deploy", "ship on friday"},
		{Relational, "bond:primary", "trusts completely"},
		{Relational, "bond:empty", ""},
		{Relational, "bond:nul", "before\x00after"},
	}

	for _, tt := range tests {
		if err := v.Store(tt.ns, tt.key, tt.value); err != nil {
			t.Fatalf("Store(%s, %s): %v", tt.ns, tt.key, err)
		}
		got, ok, err := v.Recall(tt.ns, tt.key)
		if err != nil {
			t.Fatalf("Recall(%s, %s): %v", tt.ns, tt.key, err)
		}
		if !ok {
			t.Fatalf("Recall(%s, %s): not found", tt.ns, tt.key)
		}
		if got != tt.value {
			t.Errorf("Recall(%s, %s) = %q, want %q", tt.ns, tt.key, got, tt.value)
		}
	}
}

func TestVaultRelationalEncryptedAtRest(t *testing.T) {
	db := testDB(t)
	v, err := NewVaultStore(db, "secret")
	if err != nil {
		t.Fatalf("NewVaultStore: %v", err)
	}

	plaintext := "the most sensitive memory"
	if err := v.Store(Relational, "bond:primary", plaintext); err != nil {
		t.Fatalf("Store: %v", err)
	}

	var blob []byte
	err = db.QueryRow(`
		SELECT value FROM vault_entries WHERE namespace = 'relational' AND key = 'bond:primary'
	`).Scan(&blob)
	if err != nil {
		t.Fatalf("raw read: %v", err)
	}
	if string(blob) == plaintext {
		t.Error("relational value stored as plaintext")
	}

	// Knowledge namespace stays plaintext
	v.Store(Knowledge, "fact", "plain")
	err = db.QueryRow(`
		SELECT value FROM vault_entries WHERE namespace = 'knowledge' AND key = 'fact'
	`).Scan(&blob)
	if err != nil {
		t.Fatalf("raw read: %v", err)
	}
	if string(blob) != "plain" {
		t.Errorf("knowledge value = %q, want plain", blob)
	}
}

func TestVaultRecallAbsent(t *testing.T) {
	v := testVault(t)

	_, ok, err := v.Recall(Knowledge, "never-stored")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if ok {
		t.Error("Recall absent = true, want false")
	}
}

func TestVaultForget(t *testing.T) {
	v := testVault(t)

	v.Store(Relational, "bond:old", "forgotten soon")

	ok, err := v.Forget(Relational, "bond:old")
	if err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if !ok {
		t.Error("Forget existing = false, want true")
	}

	_, found, _ := v.Recall(Relational, "bond:old")
	if found {
		t.Error("Recall after Forget found the value")
	}

	ok, err = v.Forget(Relational, "bond:old")
	if err != nil {
		t.Fatalf("Forget absent: %v", err)
	}
	if ok {
		t.Error("Forget absent = true, want false")
	}
}

func TestVaultScanPrefixDecrypts(t *testing.T) {
	v := testVault(t)

	v.Store(Relational, "bond:a", "alpha")
	v.Store(Relational, "bond:b", "beta")
	v.Store(Relational, "other:c", "gamma")

	entries, err := v.ScanPrefix(Relational, "bond:", 10)
	if err != nil {
		t.Fatalf("ScanPrefix: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// key DESC ordering
	if entries[0].Value != "beta" || entries[1].Value != "alpha" {
		t.Errorf("values = %q, %q; want beta, alpha", entries[0].Value, entries[1].Value)
	}
}

func TestVaultNamespaceIsolation(t *testing.T) {
	v := testVault(t)

	v.Store(Knowledge, "shared-key", "knowledge side")
	v.Store(Operational, "shared-key", "operational side")

	got, _, _ := v.Recall(Knowledge, "shared-key")
	if got != "knowledge side" {
		t.Errorf("knowledge recall = %q", got)
	}
	got, _, _ = v.Recall(Operational, "shared-key")
	if got != "operational side" {
		t.Errorf("operational recall = %q", got)
	}
}

func TestVaultCorruptCiphertext(t *testing.T) {
	db := testDB(t)
	v, _ := NewVaultStore(db, "secret")

	v.Store(Relational, "bond:x", "value")

	// Corrupt the blob behind the store's back
	_, err := db.Exec(`
		UPDATE vault_entries SET value = x'deadbeef' WHERE namespace = 'relational' AND key = 'bond:x'
	`)
	if err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	_, _, err = v.Recall(Relational, "bond:x")
	if !errors.Is(err, ErrDecryption) {
		t.Errorf("err = %v, want ErrDecryption", err)
	}
}

func TestVaultInvalidNamespace(t *testing.T) {
	v := testVault(t)

	if err := v.Store(Namespace("secret"), "k", "v"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Store err = %v, want ErrInvalidInput", err)
	}
	if _, _, err := v.Recall(Namespace("secret"), "k"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Recall err = %v, want ErrInvalidInput", err)
	}
}
