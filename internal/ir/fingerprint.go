package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainNode is the domain prefix for node fingerprints.
// The version suffix allows a future change of the dump format.
const DomainNode = "quill/node/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a content hash of n. Equivalent trees (with scopes
// paired in order of appearance and globals unchanged) have equal
// fingerprints. Scope names and ordinals do not contribute.
func Fingerprint(n Node) string {
	d := &dumper{labels: make(map[*Scope]string), anon: true}
	d.node(n)
	d.write(" : ", n.Type().String())
	return hashWithDomain(DomainNode, []byte(d.sb.String()))
}
