package lookup

import (
	"context"

	"github.com/angeloszaimis/cep-resolver/internal/cep"
)

// Failure records one rejected provider attempt.
type Failure struct {
	Provider string   `json:"provider"`
	Code     cep.Code `json:"code"`
	Message  string   `json:"message"`
}

// aggregate folds the failures of one lookup into a single error. A lookup
// cut short by its caller before any attempt is UPSTREAM_UNAVAILABLE.
// providers lists only the attempted ones, in attempt order.
func aggregate(ctx context.Context, code string, failures []Failure) *cep.LookupError {
	attempted := make([]string, len(failures))
	for i, f := range failures {
		attempted[i] = f.Provider
	}

	details := cep.Details{
		"cep":       code,
		"attempts":  len(failures),
		"providers": attempted,
		"errors":    failures,
	}

	if len(failures) == 0 {
		if err := ctx.Err(); err != nil {
			details["error"] = err.Error()
		}
		return cep.NewError(cep.CodeUpstreamUnavailable, details, "")
	}

	return cep.NewError(classify(failures), details, "")
}

func classify(failures []Failure) cep.Code {
	allNotFound := true
	anyTimeout := false

	for _, f := range failures {
		if f.Code != cep.CodeNotFound {
			allNotFound = false
		}
		if f.Code == cep.CodeGatewayTimeout {
			anyTimeout = true
		}
	}

	// all-timeout is a subset of any-timeout
	switch {
	case allNotFound:
		return cep.CodeNotFound
	case anyTimeout:
		return cep.CodeGatewayTimeout
	default:
		return cep.CodeUpstreamUnavailable
	}
}
