package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Namespace is one of the three isolated vault key-value spaces.
type Namespace string

const (
	Knowledge   Namespace = "knowledge"
	Operational Namespace = "operational"
	// Relational holds the most sensitive values; they are encrypted at
	// rest and decrypted transparently on every read path.
	Relational Namespace = "relational"
)

// Valid reports whether n is a known namespace.
func (n Namespace) Valid() bool {
	switch n {
	case Knowledge, Operational, Relational:
		return true
	}
	return false
}

// VaultEntry is one decrypted vault value.
type VaultEntry struct {
	Namespace Namespace `json:"namespace"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
}

// VaultStore holds three independent key-value namespaces. The Relational
// namespace is encrypted with a key derived once from the configured secret.
type VaultStore struct {
	db     *DB
	cipher *vaultCipher
}

// NewVaultStore creates a VaultStore over db. The secret keys the
// Relational namespace; the derived key is read-only after this call.
func NewVaultStore(db *DB, secret string) (*VaultStore, error) {
	c, err := newVaultCipher(secret)
	if err != nil {
		return nil, err
	}
	return &VaultStore{db: db, cipher: c}, nil
}

// Store writes a value. Relational values are sealed before they touch disk.
func (v *VaultStore) Store(ns Namespace, key, value string) error {
	if !ns.Valid() {
		return fmt.Errorf("store: unknown namespace %q: %w", ns, ErrInvalidInput)
	}
	if key == "" || len(key) > MaxKeyLen {
		return fmt.Errorf("store: key length %d: %w", len(key), ErrInvalidInput)
	}
	if len(value) > MaxValueLen {
		return fmt.Errorf("store %q: value length %d: %w", key, len(value), ErrInvalidInput)
	}

	blob := []byte(value)
	if ns == Relational {
		var err error
		blob, err = v.cipher.Seal(blob)
		if err != nil {
			return fmt.Errorf("store %q: %w", key, err)
		}
	}

	now := time.Now().Unix()
	_, err := v.db.Exec(`
		INSERT INTO vault_entries (namespace, key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = ?, updated_at = ?
	`, string(ns), key, blob, now, now, blob, now)
	if err != nil {
		return fmt.Errorf("store %q: %w", key, err)
	}
	return nil
}

// Recall returns the decrypted value for key and whether it existed.
func (v *VaultStore) Recall(ns Namespace, key string) (string, bool, error) {
	if !ns.Valid() {
		return "", false, fmt.Errorf("recall: unknown namespace %q: %w", ns, ErrInvalidInput)
	}

	var blob []byte
	err := v.db.QueryRow(`
		SELECT value FROM vault_entries WHERE namespace = ? AND key = ?
	`, string(ns), key).Scan(&blob)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("recall %q: %w", key, err)
	}

	value, err := v.decode(ns, key, blob)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Forget removes a value. Returns true if one existed.
func (v *VaultStore) Forget(ns Namespace, key string) (bool, error) {
	if !ns.Valid() {
		return false, fmt.Errorf("forget: unknown namespace %q: %w", ns, ErrInvalidInput)
	}

	result, err := v.db.Exec(`
		DELETE FROM vault_entries WHERE namespace = ? AND key = ?
	`, string(ns), key)
	if err != nil {
		return false, fmt.Errorf("forget %q: %w", key, err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// ScanPrefix returns at most limit entries whose key starts with prefix,
// ordered by key descending, with Relational values already decrypted.
func (v *VaultStore) ScanPrefix(ns Namespace, prefix string, limit int) ([]VaultEntry, error) {
	if !ns.Valid() {
		return nil, fmt.Errorf("scan: unknown namespace %q: %w", ns, ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := v.db.Query(`
		SELECT key, value FROM vault_entries
		WHERE namespace = ? AND key LIKE ? ESCAPE '\'
		ORDER BY key DESC LIMIT ?
	`, string(ns), escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("scan prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var entries []VaultEntry
	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		value, err := v.decode(ns, key, blob)
		if err != nil {
			return nil, err
		}
		entries = append(entries, VaultEntry{Namespace: ns, Key: key, Value: value})
	}
	return entries, rows.Err()
}

func (v *VaultStore) decode(ns Namespace, key string, blob []byte) (string, error) {
	if ns != Relational {
		return string(blob), nil
	}
	plaintext, err := v.cipher.Open(blob)
	if err != nil {
		return "", fmt.Errorf("decode %q: %w", key, err)
	}
	return string(plaintext), nil
}
