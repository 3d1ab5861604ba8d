package infra

import (
	"context"
	"sync"

	"registry-gateway/registry/domain"
)

type chanPool struct {
	sem chan struct{}
}

// NewSlotPool cria um pool simples baseado em channel com capacidade `max`.
func NewSlotPool(max int) domain.SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), error) {
	select {
	case p.sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-p.sem }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
