// Package registry fornece o cliente HTTP que cria documentos no registro
// respeitando um limite de chamadas por janela fixa.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (admissão no portão, vagas de envio) sem net/http
//   - infra: implementações concretas (portão por janela, codec JSON, estatísticas)
//   - registry (este pacote): cliente HTTP + tradução de status/corpo para erros
//
// Fluxo de CreateDocument:
//
//  1. Bloqueia no portão até existir permissão na janela corrente
//  2. Codifica o comando em JSON
//  3. POST com Content-Type: application/json e Authorization: Bearer <token>
//  4. Status não-2xx ou falha de transporte vira *domain.RemoteCallError
//  5. Decodifica {"value": "<uuid>"} em domain.Result
//
// A permissão é consumida na admissão e nunca devolvida, mesmo se a chamada falhar.
// O portão é criado e encerrado por quem monta o cliente; o cliente apenas o usa.
package registry
