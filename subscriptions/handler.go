package subscriptions

import (
	"net/http"

	"portalmedico-backend/errs"
	"portalmedico-backend/login"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo *Repository
	orch *Orchestrator
}

func NewHandler(repo *Repository, orch *Orchestrator) *Handler {
	return &Handler{repo: repo, orch: orch}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/plans", h.getPlans)
	r.GET("/subscription", login.RequireRole(), h.getSubscription)
	r.POST("/checkout", login.RequireRole(), h.checkout)
	r.POST("/change-plan", login.RequireRole(), h.changePlan)
	r.GET("/checkout/confirm", login.RequireRole(), h.confirm)
	r.POST("/stripe/webhook", h.webhook)
}

func (h *Handler) getPlans(c *gin.Context) {
	plans, err := h.repo.GetPlans()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}

func (h *Handler) getSubscription(c *gin.Context) {
	actor := login.ActorFromContext(c)
	sub, err := h.repo.GetActiveSubscription(actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sin suscripción activa"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sub})
}

// checkout inicia una compra: { "tipo": "plan", "plan": "basico" } o
// { "tipo": "cart", "items": [...] }. Devuelve la URL de redirección.
func (h *Handler) checkout(c *gin.Context) {
	if h.orch == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Pagos no configurados"})
		return
	}
	actor := login.ActorFromContext(c)
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos inválidos"})
		return
	}
	res, err := h.orch.BeginCheckout(c.Request.Context(), actor.ID, req)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": res.SessionID, "checkout_url": res.URL})
}

// changePlan handles POST /change-plan with body { plan }
func (h *Handler) changePlan(c *gin.Context) {
	if h.orch == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Pagos no configurados"})
		return
	}
	actor := login.ActorFromContext(c)
	var body struct {
		Plan string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan requerido"})
		return
	}
	res, err := h.orch.ChangePlan(c.Request.Context(), actor.ID, body.Plan)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": res.SessionID, "checkout_url": res.URL})
}

func (h *Handler) confirm(c *gin.Context) {
	if h.orch == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Pagos no configurados"})
		return
	}
	created, subID, err := h.orch.ConfirmSession(c.Query("session_id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created, "subscription_id": subID})
}

func (h *Handler) webhook(c *gin.Context) {
	if h.orch == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Pagos no configurados"})
		return
	}
	if err := h.orch.HandleWebhook(c.Writer, c.Request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
