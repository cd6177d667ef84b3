package citas

import (
	"context"
	"fmt"
	"log"
	"time"

	"portalmedico-backend/email"
	"portalmedico-backend/errs"
	"portalmedico-backend/migrations"
	"portalmedico-backend/notify"
)

// transiciones legales: origen -> destinos permitidos. La cancelación solo
// existe desde estados no terminales.
var transiciones = map[Estado][]Estado{
	EstadoAgendada:   {EstadoConfirmada, EstadoCancelada},
	EstadoConfirmada: {EstadoCompletada, EstadoNoAsistio, EstadoCancelada},
}

var mensajeConfirmacion = map[Estado]string{
	EstadoConfirmada: "Cita confirmada",
	EstadoCompletada: "Cita marcada como completada",
	EstadoNoAsistio:  "Se registró la inasistencia del paciente",
	EstadoCancelada:  "Cita cancelada",
}

// PuedeTransitar responde si el par (actual, destino) está en la tabla de
// transiciones. No evalúa la guarda temporal.
func PuedeTransitar(actual, destino Estado) bool {
	for _, d := range transiciones[actual] {
		if d == destino {
			return true
		}
	}
	return false
}

// Resultado de una transición aceptada.
type Resultado struct {
	Estado  Estado `json:"estado"`
	Mensaje string `json:"mensaje"`
}

// Manager valida y aplica transiciones de estado sobre una cita. La cita
// llega como argumento explícito (recién leída), nunca de estado ambiente.
type Manager struct {
	repo *Repository
	hub  *notify.Hub
}

func NewManager(repo *Repository, hub *notify.Hub) *Manager {
	return &Manager{repo: repo, hub: hub}
}

// Transition aplica destino sobre la cita si las guardas lo permiten:
// exactamente una escritura compare-and-set en éxito, ninguna en rechazo.
// No reintenta: un conflicto de estado se devuelve tal cual.
func (m *Manager) Transition(ctx context.Context, cita *Cita, destino Estado, ahora time.Time) (*Resultado, error) {
	if cita == nil {
		return nil, errs.Validationf("cita requerida")
	}
	if _, ok := mensajeConfirmacion[destino]; !ok {
		return nil, errs.Validationf(fmt.Sprintf("estado destino desconocido: %s", destino))
	}
	if !PuedeTransitar(cita.Estado, destino) {
		return nil, m.rechazo(cita, fmt.Sprintf("transición no permitida de %s a %s", cita.Estado, destino), errs.Preconditionf)
	}
	if destino == EstadoCompletada && ahora.Before(cita.FechaHora) {
		return nil, m.rechazo(cita, "la cita aún no ocurre; no puede marcarse como completada", errs.Preconditionf)
	}
	if err := m.repo.UpdateEstado(ctx, cita.ID, cita.Estado, destino); err != nil {
		m.hub.Publish(cita.DoctorID, notify.Outcome{Kind: notify.KindError, Mensaje: err.Error()})
		return nil, err
	}
	cita.Estado = destino
	mensaje := mensajeConfirmacion[destino]
	m.hub.Publish(cita.DoctorID, notify.Outcome{Kind: notify.KindOK, Mensaje: mensaje})
	if paciente := migrations.GetUserByID(cita.PacienteID); paciente != nil {
		if err := email.SendCitaActualizada(paciente.Email, mensaje); err != nil {
			log.Printf("[CITAS] email to %s failed: %v", paciente.Email, err)
		}
	}
	return &Resultado{Estado: destino, Mensaje: mensaje}, nil
}

func (m *Manager) rechazo(cita *Cita, msg string, mk func(string) error) error {
	m.hub.Publish(cita.DoctorID, notify.Outcome{Kind: notify.KindRechazo, Mensaje: msg})
	return mk(msg)
}
