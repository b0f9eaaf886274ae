// Package core contains the business logic for drover: project identity
// resolution, the dependency-aware scheduler, input/state reconciliation,
// and configuration.
package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// SourceKind distinguishes the two descriptor forms an identity can be
// derived from.
type SourceKind string

const (
	SourcePath   SourceKind = "path"
	SourcePrompt SourceKind = "prompt"
)

// SourceDescriptor identifies the input a project was created from: either a
// filesystem path (plan file or directory) or free-form prompt text.
type SourceDescriptor struct {
	Kind  SourceKind
	Value string
}

// PathSource builds a descriptor for a plan file or directory.
func PathSource(path string) SourceDescriptor {
	return SourceDescriptor{Kind: SourcePath, Value: path}
}

// PromptSource builds a descriptor for free-text prompt input.
func PromptSource(text string) SourceDescriptor {
	return SourceDescriptor{Kind: SourcePrompt, Value: text}
}

// String returns the canonical form of the descriptor, as recorded in
// project state and the projects listing.
func (d SourceDescriptor) String() string {
	return string(d.Kind) + ":" + d.Value
}

// identityHexLen is the number of hex digits surfaced from the digest.
// 16 hex chars carry 64 bits, enough that two distinct sources practically
// never collide.
const identityHexLen = 16

// ResolveIdentity derives the stable project identity for a source
// descriptor. Path sources are canonicalized to an absolute path first so
// relative and absolute spellings of the same plan map to the same project.
// Prompt sources hash the trimmed text. The function is pure: mapping the
// identity to a state directory is the caller's concern.
func ResolveIdentity(desc SourceDescriptor) (string, error) {
	var canonical string
	switch desc.Kind {
	case SourcePath:
		abs, err := filepath.Abs(desc.Value)
		if err != nil {
			return "", fmt.Errorf("canonicalizing source path %q: %w", desc.Value, err)
		}
		canonical = "path:" + filepath.Clean(abs)
	case SourcePrompt:
		trimmed := strings.TrimSpace(desc.Value)
		if trimmed == "" {
			return "", fmt.Errorf("resolving identity: empty prompt text")
		}
		canonical = "prompt:" + trimmed
	default:
		return "", fmt.Errorf("resolving identity: unknown source kind %q", desc.Kind)
	}

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])[:identityHexLen], nil
}
