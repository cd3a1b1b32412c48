// Package classify recognizes the two migration patterns in source text and
// applies their line-level substitutions.
package classify

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind is the migration pattern a piece of source text matches.
type Kind string

const (
	// None means the text matches neither pattern.
	None Kind = "none"

	// CallChainStrip marks redundant .pack(), .into() or .unpack() calls.
	CallChainStrip Kind = "call_chain_strip"

	// DefaultTypeFill marks a Default construction that needs an explicit type.
	DefaultTypeFill Kind = "default_type_fill"
)

// Pattern sources.
const (
	CallChainPattern   = `\.(pack|into|unpack)\(\)`
	DefaultLiteral     = "Default"
	TypeCapturePattern = `<(.*)>`
)

// ErrNoTypeCapture is returned when a message has no angle-bracketed type.
var ErrNoTypeCapture = errors.New("no <type> found in message")

var (
	callChainRe   = regexp.MustCompile(CallChainPattern)
	typeCaptureRe = regexp.MustCompile(TypeCapturePattern)
)

// Classify returns the pattern matched by text. The call-chain pattern is
// checked first, so a line never classifies as both.
func Classify(text string) Kind {
	if callChainRe.MatchString(text) {
		return CallChainStrip
	}
	if strings.Contains(text, DefaultLiteral) {
		return DefaultTypeFill
	}
	return None
}

// StripCallChain removes every .pack(), .into() and .unpack() call from line.
func StripCallChain(line string) string {
	return callChainRe.ReplaceAllString(line, "")
}

// ExtractType returns the text between the first '<' and the last '>' of msg.
func ExtractType(msg string) (string, error) {
	m := typeCaptureRe.FindStringSubmatch(msg)
	if m == nil {
		return "", fmt.Errorf("%q: %w", msg, ErrNoTypeCapture)
	}
	return m[1], nil
}

// FillDefault replaces the first occurrence of Default in line with typeName.
// typeName is inserted verbatim.
func FillDefault(line, typeName string) string {
	return strings.Replace(line, DefaultLiteral, typeName, 1)
}
