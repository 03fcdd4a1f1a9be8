// Fakeupstream is a local stand-in for ViaCEP and BrasilAPI used to exercise
// the resolver without reaching the public services.
//
// Usage:
//
//	go run ./scripts/fakeupstream -kind viacep -port 9001
//	go run ./scripts/fakeupstream -kind brasilapi -port 9002 -mode slow -delay 3s
//
// Modes: ok, notfound, error, slow. The mode can be switched while running:
//
//	curl -X PUT 'http://localhost:9001/mode?set=error'
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/cep-resolver/pkg/logger"
)

const (
	modeOK       = "ok"
	modeNotFound = "notfound"
	modeError    = "error"
	modeSlow     = "slow"
)

var modes = map[string]bool{modeOK: true, modeNotFound: true, modeError: true, modeSlow: true}

type upstream struct {
	kind  string
	mode  atomic.Value
	delay time.Duration
	log   *slog.Logger
}

func main() {
	var (
		port  = flag.Int("port", 9001, "port to listen on")
		kind  = flag.String("kind", "viacep", "upstream to imitate: viacep or brasilapi")
		mode  = flag.String("mode", modeOK, "failure mode: ok, notfound, error, slow")
		delay = flag.Duration("delay", 2*time.Second, "response delay in slow mode")
	)
	flag.Parse()

	log := logger.New("debug", false, "dev")

	if *kind != "viacep" && *kind != "brasilapi" {
		log.Error("unknown kind", slog.String("kind", *kind))
		os.Exit(1)
	}
	if !modes[*mode] {
		log.Error("unknown mode", slog.String("mode", *mode))
		os.Exit(1)
	}

	u := &upstream{kind: *kind, delay: *delay, log: log}
	u.mode.Store(*mode)

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /mode", u.setMode)
	if u.kind == "viacep" {
		mux.HandleFunc("GET /ws/{code}/json/", u.lookup)
	} else {
		mux.HandleFunc("GET /api/cep/v1/{code}", u.lookup)
	}

	addr := fmt.Sprintf(":%d", *port)
	log.Info("starting fake upstream",
		slog.String("kind", u.kind),
		slog.String("mode", *mode),
		slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("server failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func (u *upstream) setMode(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("set")
	if !modes[mode] {
		http.Error(w, "unknown mode", http.StatusBadRequest)
		return
	}
	u.mode.Store(mode)
	u.log.Info("mode changed", slog.String("mode", mode))
	w.WriteHeader(http.StatusNoContent)
}

func (u *upstream) lookup(w http.ResponseWriter, r *http.Request) {
	code := strings.ReplaceAll(r.PathValue("code"), "-", "")
	if len(code) != 8 {
		http.Error(w, "bad cep", http.StatusBadRequest)
		return
	}
	mode := u.mode.Load().(string)

	u.log.Info("request",
		slog.String("id", uuid.NewString()),
		slog.String("cep", code),
		slog.String("mode", mode),
		slog.String("from", r.RemoteAddr))

	switch mode {
	case modeError:
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
		return
	case modeSlow:
		select {
		case <-time.After(u.delay):
		case <-r.Context().Done():
			return
		}
	case modeNotFound:
		u.notFound(w)
		return
	}

	u.found(w, code)
}

func (u *upstream) notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if u.kind == "viacep" {
		// ViaCEP answers 200 with an in-body sentinel
		_ = json.NewEncoder(w).Encode(map[string]any{"erro": true})
		return
	}
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"name":    "CepPromiseError",
		"message": "Todos os serviços de CEP retornaram erro.",
		"type":    "service_error",
	})
}

func (u *upstream) found(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")

	if u.kind == "viacep" {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"cep":         code[:5] + "-" + code[5:],
			"logradouro":  "Rua de Teste",
			"complemento": "",
			"bairro":      "Centro",
			"localidade":  "São Paulo",
			"uf":          "SP",
			"ibge":        "3550308",
			"gia":         "1004",
			"ddd":         "11",
			"siafi":       "7107",
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]string{
		"cep":          code,
		"state":        "SP",
		"city":         "São Paulo",
		"neighborhood": "Centro",
		"street":       "Rua de Teste",
		"service":      "fakeupstream",
	})
}
