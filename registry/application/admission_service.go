package application

import (
	"context"
	"errors"
	"time"

	"registry-gateway/registry/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultSlowWait é a espera a partir da qual a admissão é considerada lenta.
const DefaultSlowWait = 2 * time.Second

// AdmissionService concentra a regra de admissão: bloquear no portão, medir a
// espera e registrar o desfecho. Não sabe nada sobre HTTP.
type AdmissionService struct {
	Gate     domain.PermitGate
	Stats    domain.StatsStore
	Logger   *logrus.Logger
	SlowWait time.Duration

	// slowLog evita um log por chamada quando a fila cresce.
	slowLog *rate.Sometimes
}

func NewAdmissionService(gate domain.PermitGate, stats domain.StatsStore, logger *logrus.Logger, slowWait time.Duration) *AdmissionService {
	if slowWait <= 0 {
		slowWait = DefaultSlowWait
	}
	return &AdmissionService{
		Gate:     gate,
		Stats:    stats,
		Logger:   logger,
		SlowWait: slowWait,
		slowLog:  &rate.Sometimes{Interval: 10 * time.Second},
	}
}

// Admit bloqueia até o portão conceder uma permissão e devolve quanto tempo esperou.
// Sem portão, admite de imediato.
func (s *AdmissionService) Admit(ctx context.Context) (time.Duration, error) {
	if s.Gate == nil {
		return 0, nil
	}

	start := time.Now()
	err := s.Gate.Acquire(ctx)
	wait := time.Since(start)

	outcome := domain.OutcomeAdmitted
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrShutdown):
		outcome = domain.OutcomeShutdown
	default:
		outcome = domain.OutcomeCancelled
	}
	record(ctx, s.Stats, s.Logger, domain.StatsEvent{
		Stage:   domain.StageAdmission,
		Outcome: outcome,
		Wait:    wait,
		At:      time.Now(),
	})

	if err != nil {
		return wait, err
	}
	if wait >= s.SlowWait && s.Logger != nil && s.slowLog != nil {
		s.slowLog.Do(func() {
			s.Logger.WithField("wait", wait.String()).Warn("admission: waited for the next rate window")
		})
	}
	return wait, nil
}

// record grava o evento em modo best-effort.
func record(ctx context.Context, stats domain.StatsStore, logger *logrus.Logger, ev domain.StatsEvent) {
	if stats == nil {
		return
	}
	// o evento ainda deve ser gravado quando o chamador cancelou
	if err := stats.Record(context.WithoutCancel(ctx), ev); err != nil && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"stage":   ev.Stage,
			"outcome": ev.Outcome,
		}).Warn("stats: failed to record event")
	}
}

// RecordSubmission grava o desfecho do envio de um documento.
func (s *AdmissionService) RecordSubmission(ctx context.Context, outcome domain.Outcome, status int) {
	record(ctx, s.Stats, s.Logger, domain.StatsEvent{
		Stage:   domain.StageSubmission,
		Outcome: outcome,
		Status:  status,
		At:      time.Now(),
	})
}
