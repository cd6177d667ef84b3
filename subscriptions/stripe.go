package subscriptions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"portalmedico-backend/notify"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// Orchestrator dirige la selección/cambio de plan y la compra de carrito
// contra Stripe, y concilia el resultado sobre la entidad Suscripcion.
// Si STRIPE_SECRET_KEY no está definida el servicio queda deshabilitado (nil).
type Orchestrator struct {
	repo          *Repository
	sessions      checkoutSessions
	hub           *notify.Hub
	secretKey     string
	webhookSecret string
	successURL    string
	cancelURL     string
	moneda        string
	invalidKey    bool // once detected, short-circuit further remote calls
}

var ErrStripeInvalidAPIKey = errors.New("stripe_invalid_api_key")

func maskKey(k string) string {
	if len(k) < 12 {
		return "****"
	}
	return k[:7] + "..." + k[len(k)-4:]
}

// NewOrchestratorFromEnv returns a configured orchestrator or nil when
// the Stripe key is missing.
func NewOrchestratorFromEnv(repo *Repository, hub *notify.Hub) *Orchestrator {
	key := os.Getenv("STRIPE_SECRET_KEY")
	if key == "" {
		return nil
	}
	success := os.Getenv("STRIPE_SUCCESS_URL")
	if success == "" {
		success = "https://example.com/checkout/success"
	}
	cancel := os.Getenv("STRIPE_CANCEL_URL")
	if cancel == "" {
		cancel = "https://example.com/checkout/cancel"
	}
	moneda := os.Getenv("STRIPE_CURRENCY")
	if moneda == "" {
		moneda = "usd"
	}
	sc := &client.API{}
	sc.Init(key, nil)
	return &Orchestrator{
		repo:          repo,
		sessions:      sc.CheckoutSessions,
		hub:           hub,
		secretKey:     key,
		webhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		successURL:    success,
		cancelURL:     cancel,
		moneda:        moneda,
	}
}

// HandleWebhook consumes webhook payloads. For a successful checkout event,
// it reconciles the subscription encoded in metadata. Cart payments carry
// no plan_id and need no reconciliation.
func (o *Orchestrator) HandleWebhook(w http.ResponseWriter, r *http.Request) error {
	if o == nil {
		return errors.New("stripe no configurado")
	}
	// Read body (preserve for verification)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	sig := r.Header.Get("Stripe-Signature")
	if o.webhookSecret != "" {
		if _, err := webhook.ConstructEvent(payload, sig, o.webhookSecret); err != nil {
			return fmt.Errorf("firma inválida: %w", err)
		}
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	if event.Type != "checkout.session.completed" {
		// Ignore other events
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ignored"))
		return nil
	}
	uid, _ := strconv.Atoi(event.Data.Object.Metadata["user_id"])
	pid, _ := strconv.Atoi(event.Data.Object.Metadata["plan_id"])
	if uid == 0 {
		return fmt.Errorf("metadata incompleta")
	}
	if pid != 0 {
		if _, err := o.SubscriptionActivated(uid, pid); err != nil {
			return err
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
	return nil
}

// ConfirmSession: query Stripe; if completed and the subscription is not
// yet active on that plan, reconcile it (idempotent).
func (o *Orchestrator) ConfirmSession(sessionID string) (bool, int, error) {
	if o == nil {
		return false, 0, errors.New("stripe no configurado")
	}
	if sessionID == "" {
		return false, 0, errors.New("session_id vacío")
	}
	sess, err := o.sessions.Get(sessionID, nil)
	if err != nil {
		return false, 0, err
	}
	if sess.Status != stripe.CheckoutSessionStatusComplete {
		return false, 0, nil
	}
	uid, _ := strconv.Atoi(sess.Metadata["user_id"])
	pid, _ := strconv.Atoi(sess.Metadata["plan_id"])
	if uid == 0 || pid == 0 {
		return false, 0, errors.New("metadata incompleta")
	}
	sub, _ := o.repo.GetActiveSubscription(uid)
	if sub != nil && sub.PlanID == pid {
		return false, sub.ID, nil
	}
	id, err := o.SubscriptionActivated(uid, pid)
	if err != nil {
		return false, 0, err
	}
	return true, id, nil
}
