package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram = "weldgraph/program/v1"
	DomainFrame   = "weldgraph/frame/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash computes the content-addressed ID of a program text.
// Identical programs hash identically across runs and processes.
func ProgramHash(text string) string {
	return hashWithDomain(DomainProgram, []byte(text))
}

// FrameHash computes the content-addressed ID of an encoded call frame.
func FrameHash(frame []byte) string {
	return hashWithDomain(DomainFrame, frame)
}
