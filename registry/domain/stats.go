package domain

import (
	"context"
	"time"
)

// Stage identifica em que ponto do fluxo o evento foi gerado.
type Stage string

const (
	StageAdmission  Stage = "admission"
	StageSubmission Stage = "submission"
)

// Outcome é o desfecho de um estágio.
type Outcome string

const (
	OutcomeAdmitted  Outcome = "admitted"
	OutcomeShutdown  Outcome = "shutdown"
	OutcomeCancelled Outcome = "cancelled"

	OutcomeCreated     Outcome = "created"
	OutcomeRemoteError Outcome = "remote_error"
	OutcomeDecodeError Outcome = "decode_error"
	OutcomeEncodeError Outcome = "encode_error"
	OutcomeBusy        Outcome = "busy"
)

// StatsEvent representa um evento de admissão ou de envio.
//
// Wait só faz sentido no estágio de admissão (tempo bloqueado no portão).
// Status é o código HTTP quando houve resposta, 0 caso contrário.
type StatsEvent struct {
	Stage   Stage
	Outcome Outcome

	Wait   time.Duration
	Status int

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// O cliente trata erro como best-effort (não derruba a chamada).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
