package store

import "errors"

// Sentinel errors for the storage layer. Callers test with errors.Is.
//
// Absence is not an error anywhere in this package: point lookups return
// (nil, nil) or (value, false, nil) for missing keys.
var (
	// ErrInvalidInput marks rejected writes: oversized keys or values,
	// unknown layers or namespaces, embedding dimension mismatches.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDecryption marks ciphertext that failed authentication or was
	// truncated. The raw bytes are never returned alongside it.
	ErrDecryption = errors.New("decryption failed")
)
