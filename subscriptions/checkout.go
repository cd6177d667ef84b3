package subscriptions

import (
	"context"
	"errors"
	"log"
	"math"
	"strconv"
	"strings"

	"portalmedico-backend/email"
	"portalmedico-backend/errs"
	"portalmedico-backend/migrations"
	"portalmedico-backend/notify"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v78"
)

// Tipos de compra que acepta el checkout.
const (
	TipoPlan    = "plan"
	TipoCarrito = "cart"
)

type CheckoutRequest struct {
	Tipo       string        `json:"tipo"`
	PlanCodigo string        `json:"plan,omitempty"`
	Items      []ItemCarrito `json:"items,omitempty"`
}

type CheckoutResult struct {
	SessionID string `json:"session_id,omitempty"`
	URL       string `json:"checkout_url"`
}

// MinorUnits es el único punto de conversión a centavos: redondeo por
// unidad, antes de multiplicar por cantidad. Catálogo, carrito y pantallas
// de precios parten del mismo valor decimal.
func MinorUnits(precio float64) int64 {
	return int64(math.Round(precio * 100))
}

var validate = validator.New()

// checkoutSessions es el recorte del cliente de Stripe que usa el
// orquestador; los tests lo sustituyen por un doble.
type checkoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// BeginCheckout construye exactamente una sesión de checkout por intento de
// compra: modo subscription (recurrencia mensual) para planes, modo payment
// para el carrito de farmacia. Valida todo antes de tocar el procesador.
func (o *Orchestrator) BeginCheckout(ctx context.Context, userID int, req CheckoutRequest) (*CheckoutResult, error) {
	switch req.Tipo {
	case TipoPlan:
		plan, err := o.planPorCodigo(req.PlanCodigo)
		if err != nil {
			return nil, err
		}
		return o.sesionPlan(ctx, userID, plan, false)
	case TipoCarrito:
		return o.sesionCarrito(ctx, userID, req.Items)
	default:
		return nil, errs.Validationf("tipo de compra desconocido")
	}
}

// ChangePlan exige una suscripción ACTIVA sobre un plan distinto antes de
// cualquier llamada externa; la sesión queda marcada como cambio para que
// la conciliación sustituya (no duplique) la suscripción vigente.
func (o *Orchestrator) ChangePlan(ctx context.Context, userID int, nuevoPlanCodigo string) (*CheckoutResult, error) {
	sub, err := o.repo.GetActiveSubscription(userID)
	if err != nil {
		return nil, &errs.Persistence{Msg: "no se pudo consultar la suscripción", Cause: err}
	}
	if sub == nil || sub.Estado != EstadoActiva {
		return nil, errs.Preconditionf("no tienes una suscripción activa para cambiar de plan")
	}
	plan, err := o.planPorCodigo(nuevoPlanCodigo)
	if err != nil {
		return nil, err
	}
	if plan.ID == sub.PlanID {
		return nil, errs.Preconditionf("ya estás suscrito a ese plan")
	}
	return o.sesionPlan(ctx, userID, plan, true)
}

func (o *Orchestrator) planPorCodigo(codigo string) (*Plan, error) {
	if strings.TrimSpace(codigo) == "" {
		return nil, errs.Validationf("plan requerido")
	}
	plan, err := o.repo.GetPlanByCodigo(codigo)
	if err != nil {
		return nil, &errs.Persistence{Msg: "no se pudo consultar el catálogo de planes", Cause: err}
	}
	if plan == nil {
		return nil, errs.Validationf("plan inválido")
	}
	return plan, nil
}

func (o *Orchestrator) sesionPlan(ctx context.Context, userID int, plan *Plan, esCambio bool) (*CheckoutResult, error) {
	if plan.Precio == 0 {
		// plan gratuito: se activa directo, sin procesador
		if _, err := o.SubscriptionActivated(userID, plan.ID); err != nil {
			return nil, err
		}
		return &CheckoutResult{URL: o.successURL}, nil
	}
	meta := map[string]string{
		"user_id":    strconv.Itoa(userID),
		"plan_id":    strconv.Itoa(plan.ID),
		"attempt_id": uuid.NewString(),
	}
	if esCambio {
		meta["change"] = "1"
	}
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(o.successURL),
		CancelURL:  stripe.String(o.cancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(plan.Moneda)),
				UnitAmount: stripe.Int64(MinorUnits(plan.Precio)),
				Recurring:  &stripe.CheckoutSessionLineItemPriceDataRecurringParams{Interval: stripe.String("month")},
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(plan.Nombre),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		Metadata: meta,
	}
	return o.crearSesion(params)
}

func (o *Orchestrator) sesionCarrito(ctx context.Context, userID int, items []ItemCarrito) (*CheckoutResult, error) {
	if len(items) == 0 {
		return nil, errs.Validationf("el carrito está vacío")
	}
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, it := range items {
		if err := validate.Struct(it); err != nil {
			return nil, errs.Validationf("artículo inválido en el carrito: " + it.Nombre)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(o.moneda),
				UnitAmount: stripe.Int64(MinorUnits(it.PrecioUnitario)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Nombre),
				},
			},
			Quantity: stripe.Int64(it.Cantidad),
		})
	}
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(o.successURL),
		CancelURL:  stripe.String(o.cancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		Metadata: map[string]string{
			"user_id":    strconv.Itoa(userID),
			"attempt_id": uuid.NewString(),
		},
	}
	return o.crearSesion(params)
}

func (o *Orchestrator) crearSesion(params *stripe.CheckoutSessionParams) (*CheckoutResult, error) {
	if o.invalidKey {
		return nil, &errs.PaymentGateway{Msg: "pasarela de pagos mal configurada", Cause: ErrStripeInvalidAPIKey}
	}
	sess, err := o.sessions.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) {
			if se.HTTPStatusCode == 401 || strings.Contains(strings.ToLower(se.Msg), "invalid api key") {
				log.Printf("[STRIPE][checkout] invalid api key (%s): %v", maskKey(o.secretKey), se)
				o.invalidKey = true
				return nil, &errs.PaymentGateway{Msg: "pasarela de pagos mal configurada", Cause: ErrStripeInvalidAPIKey}
			}
			return nil, &errs.PaymentGateway{Msg: se.Msg, Cause: err}
		}
		log.Printf("[STRIPE][checkout] error: %v", err)
		return nil, &errs.PaymentGateway{Msg: "error del procesador de pagos", Cause: err}
	}
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// SubscriptionActivated aplica el evento de pago conciliado sobre la
// suscripción: la única vía de escritura de la entidad Suscripcion.
func (o *Orchestrator) SubscriptionActivated(userID, planID int) (int, error) {
	id, err := o.repo.ActivateSubscription(userID, planID)
	if err != nil {
		o.hub.Publish(userID, notify.Outcome{Kind: notify.KindError, Mensaje: err.Error()})
		return 0, err
	}
	nombre := "tu plan"
	if plan, err := o.repo.GetPlanByID(planID); err == nil && plan != nil {
		nombre = plan.Nombre
	}
	o.hub.Publish(userID, notify.Outcome{Kind: notify.KindOK, Mensaje: "Suscripción activada: " + nombre})
	if u := migrations.GetUserByID(userID); u != nil {
		if err := email.SendSuscripcionActivada(u.Email, nombre); err != nil {
			log.Printf("[SUBS] activation email to %s failed: %v", u.Email, err)
		}
	}
	return id, nil
}
