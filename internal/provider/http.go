package provider

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/angeloszaimis/cep-resolver/internal/backend"
	"github.com/angeloszaimis/cep-resolver/internal/cep"
)

// fetch performs a single GET against the upstream under the backend's own
// timeout budget, classifies the outcome and decodes a 200 body into out.
func fetch(ctx context.Context, b *backend.Backend, logger *slog.Logger, rawURL, code string, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, b.Timeout())
	defer cancel()

	logger.Debug("Querying provider",
		slog.String("provider", b.Name()),
		slog.String("url", rawURL))

	res, err := b.Get(reqCtx, rawURL)
	if err != nil {
		return transportError(ctx, b, logger, code, err)
	}
	defer res.Body.Close()

	if err := statusError(b, logger, code, res.StatusCode); err != nil {
		return err
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if reqCtx.Err() != nil {
			return transportError(ctx, b, logger, code, reqCtx.Err())
		}
		logger.Error("Undecodable provider response",
			slog.String("provider", b.Name()),
			slog.String("cep", code),
			slog.String("error", err.Error()))
		return cep.NewError(cep.CodeUpstreamUnavailable,
			cep.Details{"cep": code, "provider": b.Name(), "error": err.Error()},
			"Invalid response from provider "+b.Name())
	}

	return nil
}

func statusError(b *backend.Backend, logger *slog.Logger, code string, status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		logger.Warn("CEP not found by provider",
			slog.String("provider", b.Name()),
			slog.String("cep", code),
			slog.Int("status", status))
		return notFound(b.Name(), code, status)
	case status == http.StatusBadRequest:
		logger.Warn("CEP rejected as invalid by provider",
			slog.String("provider", b.Name()),
			slog.String("cep", code))
		return cep.NewError(cep.CodeInvalidCEP,
			cep.Details{"cep": code, "provider": b.Name(), "status": status},
			"Invalid CEP according to "+b.Name())
	case status >= http.StatusInternalServerError:
		logger.Error("Provider returned server error",
			slog.String("provider", b.Name()),
			slog.Int("status", status))
		return cep.NewError(cep.CodeUpstreamUnavailable,
			cep.Details{"cep": code, "provider": b.Name(), "status": status},
			"Provider "+b.Name()+" is temporarily unavailable")
	default:
		logger.Error("Unexpected provider status",
			slog.String("provider", b.Name()),
			slog.Int("status", status))
		return cep.NewError(cep.CodeUpstreamUnavailable,
			cep.Details{"cep": code, "provider": b.Name(), "status": status},
			"Error querying provider "+b.Name())
	}
}

// transportError classifies a failure that produced no usable response.
// Exceeding the adapter budget is GATEWAY_TIMEOUT; a caller that went away
// and every other network failure are UPSTREAM_UNAVAILABLE.
func transportError(parent context.Context, b *backend.Backend, logger *slog.Logger, code string, err error) error {
	if isTimeout(err) && !errors.Is(parent.Err(), context.Canceled) {
		logger.Error("Provider timed out",
			slog.String("provider", b.Name()),
			slog.String("cep", code),
			slog.Duration("timeout", b.Timeout()))
		return cep.NewError(cep.CodeGatewayTimeout,
			cep.Details{"cep": code, "provider": b.Name(), "timeout": b.Timeout().String()},
			"Timed out querying "+b.Name())
	}

	logger.Error("Error querying provider",
		slog.String("provider", b.Name()),
		slog.String("cep", code),
		slog.String("error", err.Error()))
	return cep.NewError(cep.CodeUpstreamUnavailable,
		cep.Details{"cep": code, "provider": b.Name(), "error": err.Error()},
		"Error querying provider "+b.Name())
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func notFound(provider, code string, status int) error {
	details := cep.Details{"cep": code, "provider": provider}
	if status != 0 {
		details["status"] = status
	}
	return cep.NewError(cep.CodeNotFound, details,
		"CEP "+code+" not found by provider "+provider)
}

// checkAvailability reports whether a GET of rawURL answers 200 within checkTimeout.
func checkAvailability(ctx context.Context, b *backend.Backend, rawURL string) bool {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	res, err := b.Get(checkCtx, rawURL)
	if err != nil {
		return false
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK
}
