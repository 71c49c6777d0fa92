package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const Separator = "/"

// keyNamespace scopes seeded child keys.
var keyNamespace = uuid.MustParse("6f1c9a52-3d0b-4e7a-9c55-0b8e2f7d41a3")

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Split returns the segments of path.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// Parent returns the path one level up, or "" for a top-level path.
func Parent(path string) string {
	i := strings.LastIndex(path, Separator)
	if i < 0 {
		return ""
	}
	return path[:i]
}

// Base returns the last segment of path.
func Base(path string) string {
	return path[strings.LastIndex(path, Separator)+1:]
}

// IsWithin reports whether path is ancestor itself or below it.
func IsWithin(path, ancestor string) bool {
	return path == ancestor || strings.HasPrefix(path, ancestor+Separator)
}

// Ancestors returns every proper ancestor of path, nearest first.
func Ancestors(path string) []string {
	var out []string
	for p := Parent(path); p != ""; p = Parent(p) {
		out = append(out, p)
	}
	return out
}

// ValidatePath rejects empty paths and empty segments.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	for _, seg := range Split(path) {
		if seg == "" {
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
		if strings.ContainsAny(seg, "$#[]") {
			return fmt.Errorf("%w: illegal character in segment %q", ErrInvalidPath, seg)
		}
	}
	return nil
}

// ValidateValue rejects field names the backends cannot store.
func ValidateValue(v Value) error {
	for k := range v {
		if k == "" || strings.ContainsAny(k, ".$/") {
			return fmt.Errorf("%w: illegal field name %q", ErrInvalidValue, k)
		}
	}
	return nil
}

// NewKey allocates a child key for parent. Unseeded keys are time-ordered
// UUIDv7s; seeded keys are UUIDv5s of parent and seed.
func NewKey(parent string, seed ...string) string {
	if len(seed) == 0 {
		id, err := uuid.NewV7()
		if err != nil {
			return uuid.NewString()
		}
		return id.String()
	}
	name := parent + "\x00" + strings.Join(seed, "\x00")
	return uuid.NewSHA1(keyNamespace, []byte(name)).String()
}
