// Package symbol translates trading-pair symbols between the canonical
// BASE_QUOTE form and the notations used by venues and SDKs.
//
// Every translator is idempotent in both directions and passes strings it
// does not recognise through unchanged.
package symbol

import "strings"

const swapSuffix = "-SWAP"

// Translator converts between canonical and one native notation.
type Translator interface {
	ToNative(canonical string) string
	ToCanonical(native string) string
}

// Parse splits any known notation into its base and quote currencies. ok is
// false when s matches none of them.
func Parse(s string) (base, quote string, ok bool) {
	switch {
	case strings.Contains(s, "/"):
		// BASE/QUOTE:SETTLE or BASE/QUOTE
		pair := s
		if i := strings.IndexByte(pair, ':'); i >= 0 {
			pair = pair[:i]
		}
		base, quote, ok = strings.Cut(pair, "/")
	case strings.HasSuffix(s, swapSuffix):
		base, quote, ok = strings.Cut(strings.TrimSuffix(s, swapSuffix), "-")
	case strings.Contains(s, "_"):
		base, quote, ok = strings.Cut(s, "_")
	case strings.Contains(s, "-"):
		base, quote, ok = strings.Cut(s, "-")
	}
	if !ok || base == "" || quote == "" {
		return "", "", false
	}
	return base, quote, true
}

// Split returns the base and quote of a canonical symbol. Unparseable input
// yields the whole string as base.
func Split(canonical string) (base, quote string) {
	b, q, ok := Parse(canonical)
	if !ok {
		return canonical, ""
	}
	return b, q
}

// Canonical renders base and quote in canonical form.
func Canonical(base, quote string) string {
	return strings.ToUpper(base) + "_" + strings.ToUpper(quote)
}

// toCanonical is shared by every translator: all notations are accepted on
// the way in.
func toCanonical(s string) string {
	base, quote, ok := Parse(s)
	if !ok {
		return s
	}
	return base + "_" + quote
}

// --------------------------------------------------------------------------
// Underscore
// --------------------------------------------------------------------------

// Underscore is the Gate.io notation, which matches the canonical one.
type Underscore struct{}

func (Underscore) ToNative(canonical string) string { return toCanonical(canonical) }

func (Underscore) ToCanonical(native string) string { return toCanonical(native) }

// --------------------------------------------------------------------------
// DashSwap
// --------------------------------------------------------------------------

// DashSwap is the OKX instrument id notation, BASE-QUOTE-SWAP.
type DashSwap struct{}

func (DashSwap) ToNative(canonical string) string {
	if strings.HasSuffix(canonical, swapSuffix) {
		return canonical
	}
	base, quote, ok := Parse(canonical)
	if !ok {
		return canonical
	}
	return base + "-" + quote + swapSuffix
}

func (DashSwap) ToCanonical(native string) string { return toCanonical(native) }

// --------------------------------------------------------------------------
// Unified
// --------------------------------------------------------------------------

// Unified is the multi-venue SDK notation for linear swaps,
// BASE/QUOTE:QUOTE.
type Unified struct{}

func (Unified) ToNative(canonical string) string {
	if strings.Contains(canonical, "/") {
		return canonical
	}
	base, quote, ok := Parse(canonical)
	if !ok {
		return canonical
	}
	return base + "/" + quote + ":" + quote
}

func (Unified) ToCanonical(native string) string { return toCanonical(native) }

// Compile-time interface checks.
var (
	_ Translator = Underscore{}
	_ Translator = DashSwap{}
	_ Translator = Unified{}
)
