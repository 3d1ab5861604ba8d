package infra

import (
	"context"
	"sync"
	"time"

	"registry-gateway/registry/domain"
)

type Counters struct {
	Admitted int64
	Rejected int64 // shutdown ou cancelado no portão
	Created  int64
	Failed   int64
	// TotalWait soma o tempo bloqueado no portão pelos admitidos.
	TotalWait time.Duration
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes, desenvolvimento e para o resumo final do submitter.
type MemoryStatsStore struct {
	mu        sync.Mutex
	total     Counters
	byOutcome map[domain.Outcome]int64
	byStatus  map[int]int64
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		byOutcome: make(map[domain.Outcome]int64),
		byStatus:  make(map[int]int64),
	}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byOutcome[ev.Outcome]++
	if ev.Status != 0 {
		s.byStatus[ev.Status]++
	}

	switch ev.Stage {
	case domain.StageAdmission:
		if ev.Outcome == domain.OutcomeAdmitted {
			s.total.Admitted++
			s.total.TotalWait += ev.Wait
		} else {
			s.total.Rejected++
		}
	case domain.StageSubmission:
		if ev.Outcome == domain.OutcomeCreated {
			s.total.Created++
		} else {
			s.total.Failed++
		}
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByOutcome() map[domain.Outcome]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Outcome]int64, len(s.byOutcome))
	for k, v := range s.byOutcome {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByStatus() map[int]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]int64, len(s.byStatus))
	for k, v := range s.byStatus {
		out[k] = v
	}
	return out
}
