package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indica parâmetros de construção inválidos. Fatal, nunca repetido.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrShutdown é devolvido a quem estava (ou chega) bloqueado num portão encerrado.
	ErrShutdown = errors.New("rate gate shut down")
	// ErrInFlightTimeout indica que não houve vaga de envio dentro do prazo configurado.
	ErrInFlightTimeout = errors.New("no in-flight slot available")

	ErrRemoteCall = errors.New("remote call failed")
	ErrDecode     = errors.New("malformed registry response")
	ErrEncode     = errors.New("command cannot be encoded")
)

// RemoteCallError cobre falha de transporte (Err != nil) e status não-2xx.
type RemoteCallError struct {
	StatusCode int
	// Body é um trecho do corpo da resposta, quando houve resposta.
	Body string
	Err  error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("remote call failed: %v", e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("remote call failed: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("remote call failed: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

func (e *RemoteCallError) Is(target error) bool { return target == ErrRemoteCall }

type DecodeError struct {
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode registry response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode command: %v", e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func (e *EncodeError) Is(target error) bool { return target == ErrEncode }

func IsShutdownError(err error) bool {
	return errors.Is(err, ErrShutdown)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
