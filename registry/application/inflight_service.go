package application

import (
	"context"
	"errors"
	"time"

	"registry-gateway/registry/domain"
)

// InFlightService limita quantas trocas HTTP ficam abertas ao mesmo tempo,
// depois da admissão, sem saber nada sobre HTTP.
type InFlightService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
// - Se `AcquireTimeout <= 0`, espera indefinidamente (até ctx cancelar).
// - Se `AcquireTimeout > 0`, espera até o timeout e devolve domain.ErrInFlightTimeout.
// Em caso de erro nenhuma vaga foi adquirida.
func (s InFlightService) Acquire(ctx context.Context) (func(), error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	release, err := s.Pool.Acquire(acqCtx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, domain.ErrInFlightTimeout
	}
	return release, err
}
