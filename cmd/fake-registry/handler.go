package main

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"registry-gateway/registry/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type handler struct {
	token     string
	failEvery int64
	calls     atomic.Int64
	logger    *logrus.Logger
}

// newHandler: token vazio aceita qualquer bearer; failEvery > 0 responde 500
// a cada n-ésima chamada.
func newHandler(token string, failEvery int, logger *logrus.Logger) *handler {
	return &handler{token: token, failEvery: int64(failEvery), logger: logger}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if h.token != "" && r.Header.Get("Authorization") != "Bearer "+h.token {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	n := h.calls.Add(1)
	if h.failEvery > 0 && n%h.failEvery == 0 {
		http.Error(w, "simulated failure", http.StatusInternalServerError)
		return
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var cmd domain.Command
	if err := dec.Decode(&cmd); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !cmd.Format.Valid() {
		http.Error(w, "invalid format", http.StatusBadRequest)
		return
	}

	res := domain.Result{Value: uuid.New()}
	h.logger.WithFields(logrus.Fields{
		"call":  n,
		"id":    res.Value.String(),
		"group": cmd.Group,
		"type":  cmd.Type,
	}).Info("document created")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}
