package registry_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"registry-gateway/registry"
	"registry-gateway/registry/domain"
	"registry-gateway/registry/infra"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "secret-token"

var sampleCommand = domain.Command{
	Document:  "eyJkb2N1bWVudCI6IDF9",
	Signature: "MIIG...sig",
	Format:    domain.FormatManual,
	Group:     "clothes",
	Type:      "LP_INTRODUCE_GOODS",
}

// newGate cria um portão cuja janela não vira durante o teste.
func newGate(t *testing.T, limit int) *infra.WindowGate {
	t.Helper()
	g, err := infra.NewWindowGate(limit, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func newClient(t *testing.T, gate domain.PermitGate, url string, opts ...registry.Option) *registry.Client {
	t.Helper()
	c, err := registry.New(gate, testToken, append([]registry.Option{registry.WithEndpoint(url)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNew_ValidatesConfiguration(t *testing.T) {
	gate := newGate(t, 1)

	_, err := registry.New(nil, testToken)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = registry.New(gate, "  ")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = registry.New(gate, testToken, registry.WithEndpoint(""))
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = registry.New(gate, testToken, registry.WithMaxInFlight(-1, 0))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestCreateDocument_SendsHeadersAndBodyAndDecodesUUID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))

		var got map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, map[string]string{
			"document":  sampleCommand.Document,
			"signature": sampleCommand.Signature,
			"format":    "MANUAL",
			"group":     sampleCommand.Group,
			"type":      sampleCommand.Type,
		}, got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"value":"3fa85f64-5717-4562-b3fc-2c963f66afa6"}`)
	}))
	defer srv.Close()

	c := newClient(t, newGate(t, 5), srv.URL)
	res, err := c.CreateDocument(context.Background(), sampleCommand)
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("3fa85f64-5717-4562-b3fc-2c963f66afa6"), res.Value)
}

func TestCreateDocument_ServerErrorIsRemoteCallErrorAndPermitStaysConsumed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	gate := newGate(t, 2)
	c := newClient(t, gate, srv.URL)

	_, err := c.CreateDocument(context.Background(), sampleCommand)
	require.ErrorIs(t, err, domain.ErrRemoteCall)

	var rce *domain.RemoteCallError
	require.ErrorAs(t, err, &rce)
	assert.Equal(t, http.StatusInternalServerError, rce.StatusCode)
	assert.Equal(t, "boom", rce.Body)

	assert.Equal(t, 1, gate.Available(), "failed call must not refund its permit")
}

func TestCreateDocument_TransportFailureIsRemoteCallError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, newGate(t, 1), url)
	_, err := c.CreateDocument(context.Background(), sampleCommand)
	require.ErrorIs(t, err, domain.ErrRemoteCall)

	var rce *domain.RemoteCallError
	require.ErrorAs(t, err, &rce)
	assert.Zero(t, rce.StatusCode)
	assert.Error(t, rce.Err)
}

func TestCreateDocument_MalformedBodyIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"value":"nope"}`)
	}))
	defer srv.Close()

	c := newClient(t, newGate(t, 1), srv.URL)
	_, err := c.CreateDocument(context.Background(), sampleCommand)
	assert.ErrorIs(t, err, domain.ErrDecode)
	assert.NotErrorIs(t, err, domain.ErrRemoteCall)
}

func TestCreateDocument_UnknownFormatIsEncodeErrorWithoutNetworkCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	cmd := sampleCommand
	cmd.Format = "PDF"

	c := newClient(t, newGate(t, 1), srv.URL)
	_, err := c.CreateDocument(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrEncode)
	assert.Zero(t, hits.Load())
}

func TestCreateDocument_ClosedGateIsShutdownError(t *testing.T) {
	gate := newGate(t, 1)
	require.NoError(t, gate.Close())

	c := newClient(t, gate, "http://127.0.0.1:1")
	_, err := c.CreateDocument(context.Background(), sampleCommand)
	assert.True(t, domain.IsShutdownError(err), "expected shutdown error, got %v", err)
}

func TestCreateDocument_ConcurrentCallersNeverExceedLimit(t *testing.T) {
	const (
		limit   = 5
		callers = 20
	)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(domain.Result{Value: uuid.New()})
	}))
	defer srv.Close()

	gate := newGate(t, limit)
	stats := infra.NewMemoryStatsStore()
	c := newClient(t, gate, srv.URL, registry.WithStats(stats))

	var created, shutdown atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.CreateDocument(context.Background(), sampleCommand)
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, domain.ErrShutdown):
				shutdown.Add(1)
			default:
				assert.Fail(t, "unexpected error", "%v", err)
			}
		}()
	}

	require.Eventually(t, func() bool {
		return gate.Waiting() == callers-limit && created.Load() == limit
	}, 2*time.Second, time.Millisecond)
	assert.EqualValues(t, limit, hits.Load())

	require.NoError(t, gate.Close())
	wg.Wait()

	assert.EqualValues(t, limit, created.Load())
	assert.EqualValues(t, callers-limit, shutdown.Load())
	assert.EqualValues(t, limit, hits.Load())

	total := stats.Total()
	assert.EqualValues(t, limit, total.Admitted)
	assert.EqualValues(t, callers-limit, total.Rejected)
	assert.EqualValues(t, limit, total.Created)
}

func TestCreateDocument_InFlightCapTimesOut(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(started) })
		<-release
		_ = json.NewEncoder(w).Encode(domain.Result{Value: uuid.New()})
	}))
	defer srv.Close()

	stats := infra.NewMemoryStatsStore()
	c := newClient(t, newGate(t, 10), srv.URL,
		registry.WithMaxInFlight(1, 25*time.Millisecond),
		registry.WithStats(stats),
	)

	first := make(chan error, 1)
	go func() {
		_, err := c.CreateDocument(context.Background(), sampleCommand)
		first <- err
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		close(release)
		require.FailNow(t, "timeout waiting first request to start")
	}

	_, err := c.CreateDocument(context.Background(), sampleCommand)
	assert.ErrorIs(t, err, domain.ErrInFlightTimeout)

	close(release)
	require.NoError(t, <-first)
	assert.EqualValues(t, 1, stats.ByOutcome()[domain.OutcomeBusy])
}

// N=5 e janela de 1s: a 6ª chamada espera o reset e então é enviada.
func TestCreateDocument_SixthCallWaitsForNextWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("uses a real 1s window")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.Result{Value: uuid.New()})
	}))
	defer srv.Close()

	gate, err := infra.NewWindowGate(5, time.Second)
	require.NoError(t, err)
	defer gate.Close()
	c := newClient(t, gate, srv.URL)

	start := time.Now()
	for i := 0; i < 5; i++ {
		_, err := c.CreateDocument(context.Background(), sampleCommand)
		require.NoError(t, err)
	}
	time.Sleep(100 * time.Millisecond)

	_, err = c.CreateDocument(context.Background(), sampleCommand)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}
