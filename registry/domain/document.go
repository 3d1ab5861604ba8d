package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Format é a etiqueta de codificação do documento enviado.
type Format string

const (
	FormatManual Format = "MANUAL"
	FormatXML    Format = "XML"
	FormatCSV    Format = "CSV"
)

// ParseFormat aceita o nome em qualquer caixa ("xml", "Xml", "XML").
func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToUpper(strings.TrimSpace(s)))
	return f, f.Valid()
}

func (f Format) Valid() bool {
	switch f {
	case FormatManual, FormatXML, FormatCSV:
		return true
	}
	return false
}

// Command é o pedido de criação de um documento.
//
// Produzido pelo chamador e consumido uma única vez por chamada;
// o cliente não guarda referência a ele.
type Command struct {
	Document  string `json:"document"`
	Signature string `json:"signature"`
	Format    Format `json:"format"`
	Group     string `json:"group"`
	Type      string `json:"type"`
}

// Result embrulha o identificador devolvido pelo registro.
type Result struct {
	Value uuid.UUID `json:"value"`
}
