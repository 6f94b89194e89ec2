package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainChoreography = "choreo/choreography/v1"
	DomainTrace        = "choreo/trace/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ChoreographyHash computes the content hash of a definition.
// Instances record it so that replay can detect a changed definition.
func ChoreographyHash(c *Choreography) (string, error) {
	canonical, err := MarshalCanonical(c.ToCanonicalMap())
	if err != nil {
		return "", fmt.Errorf("ChoreographyHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainChoreography, canonical), nil
}

// TraceHash computes the hash of an ordered event sequence.
func TraceHash(events []string) (string, error) {
	canonical, err := MarshalCanonical(events)
	if err != nil {
		return "", fmt.Errorf("TraceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// MustChoreographyHash is like ChoreographyHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustChoreographyHash(c *Choreography) string {
	h, err := ChoreographyHash(c)
	if err != nil {
		panic(err)
	}
	return h
}
