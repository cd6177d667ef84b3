package solicitudes

import (
	"context"
	"fmt"
	"log"
	"strings"

	"portalmedico-backend/email"
	"portalmedico-backend/errs"
	"portalmedico-backend/notify"
)

var decisionEstado = map[Decision]Estado{
	DecisionAprobar:  EstadoAprobada,
	DecisionRechazar: EstadoRechazada,
	DecisionDevolver: EstadoDevuelta,
}

var mensajeDecision = map[Decision]string{
	DecisionAprobar:  "Solicitud aprobada",
	DecisionRechazar: "Solicitud rechazada",
	DecisionDevolver: "Solicitud devuelta para corrección",
}

// requiereMotivo: rechazar y devolver siempre llevan un motivo no vacío.
func requiereMotivo(d Decision) bool {
	return d == DecisionRechazar || d == DecisionDevolver
}

// Resultado de una decisión aceptada.
type Resultado struct {
	Estado  Estado `json:"estado"`
	Mensaje string `json:"mensaje"`
}

// Manager valida y aplica la decisión del director sobre una solicitud.
type Manager struct {
	repo *Repository
	hub  *notify.Hub
}

func NewManager(repo *Repository, hub *notify.Hub) *Manager {
	return &Manager{repo: repo, hub: hub}
}

// Decidir aplica la decisión: solo desde PENDIENTE, motivo obligatorio en
// rechazos y devoluciones, una sola escritura compare-and-set. El motivo de
// una aprobación se descarta. directorID solo se usa para notificar.
func (m *Manager) Decidir(ctx context.Context, s *Solicitud, decision Decision, motivo string, directorID int) (*Resultado, error) {
	if s == nil {
		return nil, errs.Validationf("solicitud requerida")
	}
	destino, ok := decisionEstado[decision]
	if !ok {
		return nil, errs.Validationf(fmt.Sprintf("decisión desconocida: %s", decision))
	}
	motivo = strings.TrimSpace(motivo)
	if requiereMotivo(decision) && motivo == "" {
		return nil, m.rechazo(directorID, "el motivo es obligatorio para rechazar o devolver", errs.Validationf)
	}
	if !requiereMotivo(decision) {
		motivo = ""
	}
	if s.Estado != EstadoPendiente {
		return nil, m.rechazo(directorID, fmt.Sprintf("la solicitud ya no está pendiente (estado actual: %s)", s.Estado), errs.Preconditionf)
	}
	if err := m.repo.Decidir(ctx, s.ID, destino, motivo); err != nil {
		m.hub.Publish(directorID, notify.Outcome{Kind: notify.KindError, Mensaje: err.Error()})
		return nil, err
	}
	s.Estado = destino
	s.Motivo = motivo
	mensaje := mensajeDecision[decision]
	m.hub.Publish(directorID, notify.Outcome{Kind: notify.KindOK, Mensaje: mensaje})
	if err := email.SendDecisionSolicitud(s.Email, string(destino), motivo); err != nil {
		log.Printf("[SOLICITUDES] decision email to %s failed: %v", s.Email, err)
	}
	return &Resultado{Estado: destino, Mensaje: mensaje}, nil
}

func (m *Manager) rechazo(directorID int, msg string, mk func(string) error) error {
	m.hub.Publish(directorID, notify.Outcome{Kind: notify.KindRechazo, Mensaje: msg})
	return mk(msg)
}
