package solicitudes

import "time"

// Estado de una solicitud de registro médico. APROBADA y RECHAZADA son
// terminales; DEVUELTA regresa al solicitante para corrección.
type Estado string

const (
	EstadoPendiente Estado = "PENDIENTE"
	EstadoAprobada  Estado = "APROBADA"
	EstadoRechazada Estado = "RECHAZADA"
	EstadoDevuelta  Estado = "DEVUELTA"
)

// Decisiones que puede tomar el director sobre una solicitud PENDIENTE.
type Decision string

const (
	DecisionAprobar  Decision = "APROBAR"
	DecisionRechazar Decision = "RECHAZAR"
	DecisionDevolver Decision = "DEVOLVER"
)

// Documento de soporte adjunto a la solicitud.
type Documento struct {
	ID     int    `json:"id"`
	Nombre string `json:"nombre"`
	Ruta   string `json:"ruta"`
}

// Solicitud con la foto inmutable del solicitante tomada en el intake.
// ErroresValidacion trae las marcas de los chequeos automáticos previos.
type Solicitud struct {
	ID                int         `json:"id"`
	Nombre            string      `json:"nombre"`
	Email             string      `json:"email"`
	Telefono          string      `json:"telefono"`
	RegistroMedico    string      `json:"registro_medico"`
	Estado            Estado      `json:"estado"`
	Motivo            string      `json:"motivo,omitempty"`
	ErroresValidacion []string    `json:"errores_validacion,omitempty"`
	Documentos        []Documento `json:"documentos,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}
