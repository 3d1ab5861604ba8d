package domain

import "context"

// PermitGate é o portão de admissão que fica na frente da chamada de rede.
//
// A semântica é: Acquire bloqueia até existir uma permissão livre na janela
// corrente e a consome. Não há devolução: a permissão vale até o próximo reset.
// Retorna ErrShutdown se o portão for encerrado, ou ctx.Err() se o contexto
// terminar antes da admissão.
type PermitGate interface {
	Acquire(ctx context.Context) error
}

// SlotPool representa um recurso com capacidade finita (ex: trocas HTTP simultâneas).
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar.
// Ao adquirir, retorna uma função de release que deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Codec converte comandos para o payload de rede e respostas para Result.
type Codec interface {
	Encode(Command) ([]byte, error)
	Decode([]byte) (Result, error)
}
