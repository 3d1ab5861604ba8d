// Package application contém os casos de uso (regras de aplicação) de admissão
// e de limite de envios simultâneos.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: AdmissionService.Admit(ctx) bloqueia no portão, mede a espera e registra o evento.
package application
