package citas

import "time"

// Estado de una cita. COMPLETADA, NO_ASISTIO y CANCELADA son terminales.
type Estado string

const (
	EstadoAgendada   Estado = "AGENDADA"
	EstadoConfirmada Estado = "CONFIRMADA"
	EstadoCompletada Estado = "COMPLETADA"
	EstadoNoAsistio  Estado = "NO_ASISTIO"
	EstadoCancelada  Estado = "CANCELADA"
)

const (
	ModalidadVirtual    = "VIRTUAL"
	ModalidadPresencial = "PRESENCIAL"
)

type Cita struct {
	ID         int       `json:"id"`
	PacienteID int       `json:"paciente_id"`
	DoctorID   int       `json:"doctor_id"`
	FechaHora  time.Time `json:"fecha_hora"`
	Modalidad  string    `json:"modalidad"`
	Estado     Estado    `json:"estado"`
}
