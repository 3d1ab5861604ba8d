// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowGate: portão de admissão por janela fixa, com fila FIFO e reset periódico
//   - SlotPool: semáforo simples para limitar trocas HTTP simultâneas
//   - JSONCodec: payload de criação e resposta do registro
//   - MemoryStatsStore, RedisStatsStore, PrometheusStatsStore: estatísticas
package infra
