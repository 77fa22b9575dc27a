package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// CanonicalBytes serialises a fetched post into a deterministic byte form
// for hashing. Fields are written in a fixed order with length prefixes so
// that field boundaries cannot be confused, and no process- or time-dependent
// data is included. Identical post content always canonicalises to identical
// bytes regardless of platform or locale.
func CanonicalBytes(post *FetchedPost) []byte {
	var b strings.Builder

	writeField := func(s string) {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
		b.WriteByte('\n')
	}

	writeField(post.Title)
	writeField(post.Body)
	// Tag order is preserved as extracted; reordering tags is a content change.
	writeField(strconv.Itoa(len(post.Tags)))
	for _, tag := range post.Tags {
		writeField(tag)
	}
	writeField(post.Author)
	writeField(post.PublishedAt)

	return []byte(b.String())
}

// HashContent computes the hex-encoded SHA-256 fingerprint of canonicalised
// content bytes.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ShouldProcess reports whether a document with the given stored hash needs
// reprocessing for newly fetched content. An empty existingHash means the
// document has never been ingested.
func ShouldProcess(existingHash, newHash string) bool {
	return existingHash == "" || existingHash != newHash
}

// QuestionHash fingerprints a raw question for answer caching. The question
// is hashed as-is: whitespace or case changes produce a distinct key.
func QuestionHash(question string) string {
	sum := sha256.Sum256([]byte(question))
	return hex.EncodeToString(sum[:])
}
