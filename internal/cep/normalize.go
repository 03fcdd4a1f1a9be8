package cep

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const expectedFormat = "12345-678 or 12345678"

var (
	rawPattern      = regexp.MustCompile(`^[0-9]{5}-?[0-9]{3}$`)
	canonicalLength = 8
)

// Normalize validates a raw postal code and returns its canonical 8-digit
// form. Rejections are INVALID_CEP lookup errors.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	if err := validation.Validate(trimmed, validation.Required); err != nil {
		return "", NewError(CodeInvalidCEP, Details{"received": raw}, "CEP is required.")
	}

	if err := validation.Validate(trimmed, validation.Match(rawPattern)); err != nil {
		return "", NewError(CodeInvalidCEP,
			Details{"received": trimmed, "expectedFormat": expectedFormat},
			"Invalid CEP. A CEP must contain 8 numeric digits (with or without hyphen).")
	}

	normalized := strings.Replace(trimmed, "-", "", 1)

	if allSameDigit(normalized) {
		return "", NewError(CodeInvalidCEP,
			Details{"received": trimmed, "reason": "a CEP with all digits equal is not valid"},
			"Invalid CEP. A CEP cannot have all digits equal.")
	}

	return normalized, nil
}

// Canonical reports whether code is already an 8-digit canonical CEP.
func Canonical(code string) bool {
	if len(code) != canonicalLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CanonicalFromUpstream strips formatting from a code returned by a provider
// ("01310-100" becomes "01310100"). Unparseable values fall back to fallback.
func CanonicalFromUpstream(code, fallback string) string {
	stripped := strings.ReplaceAll(strings.TrimSpace(code), "-", "")
	if Canonical(stripped) {
		return stripped
	}
	return fallback
}

func allSameDigit(code string) bool {
	for i := 1; i < len(code); i++ {
		if code[i] != code[0] {
			return false
		}
	}
	return true
}
