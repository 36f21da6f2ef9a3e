package model

import (
	"fmt"
	"strings"
)

// Collection identifies one of the product catalogs the curator manages.
type Collection string

const (
	CollectionSinks    Collection = "sinks"
	CollectionTaps     Collection = "taps"
	CollectionLighting Collection = "lighting"
	CollectionShowers  Collection = "showers"
	CollectionToilets  Collection = "toilets"
)

// AllCollections lists every known collection in display order.
func AllCollections() []Collection {
	return []Collection{
		CollectionSinks,
		CollectionTaps,
		CollectionLighting,
		CollectionShowers,
		CollectionToilets,
	}
}

// ParseCollection converts a user-supplied name into a Collection.
func ParseCollection(s string) (Collection, error) {
	c := Collection(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CollectionSinks, CollectionTaps, CollectionLighting, CollectionShowers, CollectionToilets:
		return c, nil
	}
	return "", fmt.Errorf("unknown collection %q", s)
}

// String returns the collection name.
func (c Collection) String() string { return string(c) }

// MatchCategory classifies the outcome of a spec-sheet verification.
// Unverifiable is deliberately distinct from NoMatch: a network failure is
// absence of evidence, not evidence of mismatch.
type MatchCategory int

const (
	MatchUnknown MatchCategory = iota
	MatchExact
	MatchPartial
	MatchNone
	MatchUnverifiable
)

// String returns a short label for the category.
func (m MatchCategory) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchPartial:
		return "partial"
	case MatchNone:
		return "no-match"
	case MatchUnverifiable:
		return "unverifiable"
	default:
		return "unknown"
	}
}

// ParseMatchCategory maps a remote verification response value onto a
// MatchCategory. Unrecognized values degrade to MatchUnknown.
func ParseMatchCategory(s string) MatchCategory {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact", "exact_match", "match":
		return MatchExact
	case "partial", "partial_match":
		return MatchPartial
	case "none", "no_match", "mismatch":
		return MatchNone
	case "unverifiable", "error":
		return MatchUnverifiable
	default:
		return MatchUnknown
	}
}
