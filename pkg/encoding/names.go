// Package encoding provides text utilities for model metadata and the names
// written into exported files.
package encoding

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unnamed is returned by the name helpers when nothing printable is left.
const Unnamed = "unnamed"

// NormalizeText converts s to NFC and drops control characters.
// Returns the original string if the transformation fails.
func NormalizeText(s string) string {
	t := transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cc)))
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// FoldASCII strips diacritics, so "Café" becomes "Cafe". Characters without
// an ASCII base letter are kept as they are.
func FoldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// SanitizeName makes s safe to use as an OBJ object or material name and as
// part of a file name. Every character outside [A-Za-z0-9_-] becomes '_'.
func SanitizeName(s string) string {
	s = strings.TrimSpace(FoldASCII(s))
	if s == "" {
		return Unnamed
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, s)
}

// ModelName derives a snake_case model name from a file path,
// e.g. "scenes/Wooden Crate.yaml" gives "wooden_crate".
func ModelName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := strcase.ToSnake(SanitizeName(base))
	name = strings.Trim(name, "_")
	if name == "" {
		return Unnamed
	}
	return name
}
