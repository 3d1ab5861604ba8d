package infra

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"registry-gateway/registry/domain"

	"github.com/google/uuid"
)

// maxBodyExcerpt limita o trecho de corpo guardado nos erros.
const maxBodyExcerpt = 512

// JSONCodec implementa domain.Codec para a API de criação de documentos.
type JSONCodec struct{}

func (JSONCodec) Encode(cmd domain.Command) ([]byte, error) {
	if !cmd.Format.Valid() {
		return nil, &domain.EncodeError{Err: fmt.Errorf("unsupported document format %q", cmd.Format)}
	}
	b, err := json.Marshal(cmd)
	if err != nil {
		return nil, &domain.EncodeError{Err: err}
	}
	return b, nil
}

// resultBody existe para diferenciar "value" ausente de um UUID nulo.
type resultBody struct {
	Value *string `json:"value"`
}

// canonicalUUIDLen é o tamanho da forma 8-4-4-4-12.
const canonicalUUIDLen = 36

// Decode aceita um único objeto JSON cujo "value" esteja na forma canônica;
// bytes após o objeto são erro.
func (JSONCodec) Decode(body []byte) (domain.Result, error) {
	var rb resultBody
	if err := json.Unmarshal(body, &rb); err != nil {
		return domain.Result{}, &domain.DecodeError{Body: Excerpt(body), Err: err}
	}
	if rb.Value == nil {
		return domain.Result{}, &domain.DecodeError{Body: Excerpt(body), Err: errors.New(`missing "value"`)}
	}
	if len(*rb.Value) != canonicalUUIDLen {
		return domain.Result{}, &domain.DecodeError{Body: Excerpt(body), Err: fmt.Errorf("value %q is not a canonical UUID", *rb.Value)}
	}
	id, err := uuid.Parse(*rb.Value)
	if err != nil {
		return domain.Result{}, &domain.DecodeError{Body: Excerpt(body), Err: err}
	}
	return domain.Result{Value: id}, nil
}

// Excerpt corta o corpo para caber numa mensagem de erro ou log.
func Excerpt(body []byte) string {
	b := bytes.TrimSpace(body)
	if len(b) > maxBodyExcerpt {
		return string(b[:maxBodyExcerpt]) + "..."
	}
	return string(b)
}
