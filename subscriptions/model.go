package subscriptions

import "time"

// Estado de una suscripción. Solo ACTIVA habilita el acceso; una activación
// nueva marca la anterior como SUSTITUIDA, nunca la duplica.
type Estado string

const (
	EstadoActiva     Estado = "ACTIVA"
	EstadoPendiente  Estado = "PENDIENTE"
	EstadoCancelada  Estado = "CANCELADA"
	EstadoSustituida Estado = "SUSTITUIDA"
)

type Plan struct {
	ID         int      `json:"id"`
	Codigo     string   `json:"codigo"`
	Nombre     string   `json:"nombre"`
	Moneda     string   `json:"moneda"`
	Precio     float64  `json:"precio"`
	Billing    string   `json:"billing"`
	Consultas  int      `json:"consultas"`
	Beneficios []string `json:"beneficios"`
}

type Suscripcion struct {
	ID          int        `json:"id"`
	UserID      int        `json:"user_id"`
	PlanID      int        `json:"plan_id"`
	Estado      Estado     `json:"estado"`
	FechaInicio time.Time  `json:"fecha_inicio"`
	FechaFin    *time.Time `json:"fecha_fin"`
	Plan        *Plan      `json:"plan,omitempty"`
}

// ItemCarrito es una línea de compra puntual de farmacia. El precio viaja
// en la moneda de exhibición y se convierte a centavos en un único punto
// (MinorUnits) justo antes de hablar con el procesador.
type ItemCarrito struct {
	Nombre         string  `json:"nombre" validate:"required"`
	PrecioUnitario float64 `json:"precio_unitario" validate:"gt=0"`
	Cantidad       int64   `json:"cantidad" validate:"gt=0"`
}
