package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"registry-gateway/registry"
	"registry-gateway/registry/domain"
	"registry-gateway/registry/infra"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func post(t *testing.T, h http.Handler, auth, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "http://example/api/v3/lk/documents/create", strings.NewReader(body))
	if auth != "" {
		r.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

const validBody = `{"document":"d","signature":"s","format":"MANUAL","group":"g","type":"t"}`

func TestHandler_RejectsWrongToken(t *testing.T) {
	h := newHandler("tok", 0, quietLogger())
	assert.Equal(t, http.StatusUnauthorized, post(t, h, "Bearer other", validBody).Code)
	assert.Equal(t, http.StatusOK, post(t, h, "Bearer tok", validBody).Code)
}

func TestHandler_RejectsUnknownFieldsAndFormats(t *testing.T) {
	h := newHandler("", 0, quietLogger())
	assert.Equal(t, http.StatusBadRequest, post(t, h, "", `{"document":"d","extra":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, "", `{"document":"d","format":"PDF"}`).Code)
}

func TestHandler_FailEvery(t *testing.T) {
	h := newHandler("", 2, quietLogger())
	assert.Equal(t, http.StatusOK, post(t, h, "", validBody).Code)
	assert.Equal(t, http.StatusInternalServerError, post(t, h, "", validBody).Code)
	assert.Equal(t, http.StatusOK, post(t, h, "", validBody).Code)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newHandler("", 0, quietLogger())
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// O cliente real contra o registro falso: o corpo enviado é aceito e o UUID volta.
func TestHandler_WithRegistryClient(t *testing.T) {
	srv := httptest.NewServer(newHandler("tok", 0, quietLogger()))
	defer srv.Close()

	gate, err := infra.NewWindowGate(2, time.Hour)
	require.NoError(t, err)
	defer gate.Close()

	c, err := registry.New(gate, "tok", registry.WithEndpoint(srv.URL))
	require.NoError(t, err)

	res, err := c.CreateDocument(context.Background(), domain.Command{
		Document: "d", Signature: "s", Format: domain.FormatXML, Group: "g", Type: "t",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.Value)
}
