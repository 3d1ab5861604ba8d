package infra

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"registry-gateway/registry/domain"

	"github.com/sirupsen/logrus"
)

// WindowGate é um portão de admissão por janela fixa.
//
// Começa com `limit` permissões. A cada `window` a contagem volta a ser
// exatamente `limit` (reset duro: sobra não acumula e excesso não é emprestado
// da próxima janela). Quem chega sem permissão entra numa fila FIFO; o reset
// entrega as novas permissões aos primeiros da fila na mesma seção crítica,
// então não existe janela transitória com contagem zero.
type WindowGate struct {
	limit     int
	window    time.Duration
	newTicker func(time.Duration) ticker
	logger    *logrus.Logger

	mu        sync.Mutex
	available int
	waiters   list.List // *gateWaiter, em ordem de chegada
	closed    bool
	windows   uint64

	stop chan struct{}
	done chan struct{}
}

type gateWaiter struct {
	ready chan struct{}
	// err só é escrito antes de fechar ready.
	err error
}

// GateOption configura um WindowGate na construção.
type GateOption func(*WindowGate)

// WithGateLogger registra resets e fechamento do portão; nil silencia.
func WithGateLogger(l *logrus.Logger) GateOption {
	return func(g *WindowGate) { g.logger = l }
}

// ticker abstrai time.Ticker para permitir resets determinísticos em teste.
type ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) Chan() <-chan time.Time { return t.C }

func newTimeTicker(d time.Duration) ticker { return timeTicker{time.NewTicker(d)} }

// NewWindowGate cria o portão e inicia a goroutine de reset.
// Pare com Close.
func NewWindowGate(limit int, window time.Duration, opts ...GateOption) (*WindowGate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: request limit must be > 0, got %d", domain.ErrConfiguration, limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be > 0, got %s", domain.ErrConfiguration, window)
	}

	g := &WindowGate{
		limit:     limit,
		window:    window,
		newTicker: newTimeTicker,
		available: limit,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}

	go g.run(g.newTicker(window))
	return g, nil
}

// Limit devolve quantas permissões cada janela concede.
func (g *WindowGate) Limit() int { return g.limit }

// Window devolve a duração de uma janela.
func (g *WindowGate) Window() time.Duration { return g.window }

// Available devolve as permissões livres na janela corrente.
func (g *WindowGate) Available() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.available
}

// Waiting devolve quantos chamadores estão bloqueados na fila.
func (g *WindowGate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiters.Len()
}

// Windows devolve quantos resets já aconteceram.
func (g *WindowGate) Windows() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.windows
}

// Acquire implementa domain.PermitGate.
//
// Não há timeout próprio: o chamador espera até o reset que o alcance na fila.
// Se ctx terminar antes disso, o chamador sai da fila sem consumir permissão.
func (g *WindowGate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return domain.ErrShutdown
	}
	// available > 0 implica fila vazia: o reset só deixa sobra depois de esvaziá-la.
	if g.available > 0 && g.waiters.Len() == 0 {
		g.available--
		g.mu.Unlock()
		return nil
	}
	if err := ctx.Err(); err != nil {
		g.mu.Unlock()
		return err
	}
	w := &gateWaiter{ready: make(chan struct{})}
	elem := g.waiters.PushBack(w)
	g.mu.Unlock()

	select {
	case <-w.ready:
		return w.err
	case <-ctx.Done():
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-w.ready:
		// a concessão (ou o encerramento) ganhou a corrida com o cancelamento
		return w.err
	default:
	}
	g.waiters.Remove(elem)
	return ctx.Err()
}

func (g *WindowGate) run(t ticker) {
	defer close(g.done)
	defer t.Stop()

	for {
		select {
		case <-g.stop:
			return
		case <-t.Chan():
			g.reset()
		}
	}
}

func (g *WindowGate) reset() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.windows++
	g.available = g.limit
	released := 0
	for g.available > 0 && g.waiters.Len() > 0 {
		w := g.waiters.Remove(g.waiters.Front()).(*gateWaiter)
		g.available--
		released++
		close(w.ready)
	}
	waiting := g.waiters.Len()
	window := g.windows
	g.mu.Unlock()

	if g.logger != nil && (released > 0 || waiting > 0) {
		g.logger.WithFields(logrus.Fields{
			"window":   window,
			"released": released,
			"waiting":  waiting,
		}).Debug("rate gate: window reset")
	}
}

// Close para o reset periódico e libera todos os chamadores bloqueados com
// domain.ErrShutdown. Chamadas seguintes a Acquire também falham. Idempotente.
func (g *WindowGate) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		<-g.done
		return nil
	}
	g.closed = true
	g.available = 0
	released := g.waiters.Len()
	for e := g.waiters.Front(); e != nil; e = e.Next() {
		w := e.Value.(*gateWaiter)
		w.err = domain.ErrShutdown
		close(w.ready)
	}
	g.waiters.Init()
	g.mu.Unlock()

	close(g.stop)
	<-g.done

	if g.logger != nil {
		g.logger.WithField("released", released).Info("rate gate: closed")
	}
	return nil
}
