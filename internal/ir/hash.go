package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainStatement is the hash domain for statement fingerprints.
// The version suffix allows the canonical form to change later.
const DomainStatement = "sql2rest/statement/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a content hash of the statement's canonical JSON.
// Two SQL texts that differ only in whitespace, keyword case or redundant
// parentheses produce the same fingerprint.
func Fingerprint(stmt Statement) (string, error) {
	data, err := MarshalCanonical(stmt)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainStatement, data), nil
}
