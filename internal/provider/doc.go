// Package provider implements the upstream address lookup adapters.
//
// Each adapter performs exactly one upstream query per call and translates
// the upstream's response and failure signals into the shared cep taxonomy:
//
//   - 404, or an in-body "not found" sentinel on 200: CEP_NOT_FOUND
//   - 400: INVALID_CEP
//   - 5xx, transport failures, undecodable bodies: UPSTREAM_UNAVAILABLE
//   - the adapter's own timeout budget exceeded: GATEWAY_TIMEOUT
//
// Repetition across providers is the orchestrator's job; adapters never retry.
package provider
