package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"registry-gateway/registry/application"
	"registry-gateway/registry/domain"
	"registry-gateway/registry/infra"

	"github.com/sirupsen/logrus"
)

// DefaultEndpoint é o endpoint de criação de documentos do registro.
const DefaultEndpoint = "https://ismp.crpt.ru/api/v3/lk/documents/create"

// maxResponseBody limita o quanto da resposta é lido.
const maxResponseBody = 1 << 20

// Client envia comandos de criação de documento. Seguro para uso concorrente.
type Client struct {
	endpoint string
	token    string

	httpClient *http.Client
	codec      domain.Codec
	stats      domain.StatsStore
	logger     *logrus.Logger

	slowWait     time.Duration
	maxInFlight  int
	inFlightWait time.Duration
	admission    *application.AdmissionService
	inFlight     application.InFlightService
}

type Option func(*Client)

func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithCodec(codec domain.Codec) Option {
	return func(c *Client) { c.codec = codec }
}

func WithStats(stats domain.StatsStore) Option {
	return func(c *Client) { c.stats = stats }
}

func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSlowWait define a espera no portão a partir da qual um aviso é logado.
func WithSlowWait(d time.Duration) Option {
	return func(c *Client) { c.slowWait = d }
}

// WithMaxInFlight limita as trocas HTTP simultâneas (0 = sem limite).
// timeout <= 0 espera por uma vaga até o ctx encerrar.
func WithMaxInFlight(n int, timeout time.Duration) Option {
	return func(c *Client) {
		c.maxInFlight = n
		c.inFlightWait = timeout
	}
}

// New monta o cliente sobre um portão já criado.
func New(gate domain.PermitGate, token string, opts ...Option) (*Client, error) {
	if gate == nil {
		return nil, fmt.Errorf("%w: rate gate is required", domain.ErrConfiguration)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: bearer token is required", domain.ErrConfiguration)
	}

	c := &Client{
		endpoint:   DefaultEndpoint,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		codec:      infra.JSONCodec{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.codec == nil {
		c.codec = infra.JSONCodec{}
	}
	if c.endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", domain.ErrConfiguration)
	}
	if c.maxInFlight < 0 {
		return nil, fmt.Errorf("%w: max in-flight must be >= 0, got %d", domain.ErrConfiguration, c.maxInFlight)
	}

	c.admission = application.NewAdmissionService(gate, c.stats, c.logger, c.slowWait)
	if c.maxInFlight > 0 {
		c.inFlight = application.InFlightService{
			Pool:           infra.NewSlotPool(c.maxInFlight),
			AcquireTimeout: c.inFlightWait,
		}
	}
	return c, nil
}

// CreateDocument envia um comando e devolve o identificador criado.
//
// Bloqueia no portão até haver permissão. Erros possíveis (use errors.Is/As):
// domain.ErrShutdown, domain.ErrEncode, domain.ErrRemoteCall (*domain.RemoteCallError),
// domain.ErrDecode, domain.ErrInFlightTimeout ou ctx.Err().
func (c *Client) CreateDocument(ctx context.Context, cmd domain.Command) (domain.Result, error) {
	if _, err := c.admission.Admit(ctx); err != nil {
		return domain.Result{}, fmt.Errorf("create document: %w", err)
	}

	res, status, err := c.submit(ctx, cmd)
	c.admission.RecordSubmission(ctx, outcomeOf(err), status)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"status": status,
				"group":  cmd.Group,
				"type":   cmd.Type,
			}).Warn("create document failed")
		}
		return domain.Result{}, fmt.Errorf("create document: %w", err)
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"id":    res.Value.String(),
			"group": cmd.Group,
			"type":  cmd.Type,
		}).Debug("document created")
	}
	return res, nil
}

func (c *Client) submit(ctx context.Context, cmd domain.Command) (domain.Result, int, error) {
	body, err := c.codec.Encode(cmd)
	if err != nil {
		return domain.Result{}, 0, err
	}

	release, err := c.inFlight.Acquire(ctx)
	if err != nil {
		return domain.Result{}, 0, err
	}
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Result{}, 0, &domain.RemoteCallError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Result{}, 0, &domain.RemoteCallError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return domain.Result{}, resp.StatusCode, &domain.RemoteCallError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Result{}, resp.StatusCode, &domain.RemoteCallError{
			StatusCode: resp.StatusCode,
			Body:       infra.Excerpt(payload),
		}
	}

	res, err := c.codec.Decode(payload)
	if err != nil {
		return domain.Result{}, resp.StatusCode, err
	}
	return res, resp.StatusCode, nil
}

func outcomeOf(err error) domain.Outcome {
	switch {
	case err == nil:
		return domain.OutcomeCreated
	case errors.Is(err, domain.ErrEncode):
		return domain.OutcomeEncodeError
	case errors.Is(err, domain.ErrDecode):
		return domain.OutcomeDecodeError
	case errors.Is(err, domain.ErrInFlightTimeout):
		return domain.OutcomeBusy
	case errors.Is(err, domain.ErrRemoteCall):
		return domain.OutcomeRemoteError
	default:
		// ctx encerrado enquanto esperava vaga de envio
		return domain.OutcomeCancelled
	}
}
