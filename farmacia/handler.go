package farmacia

import (
	"context"
	"net/http"

	"portalmedico-backend/errs"
	"portalmedico-backend/login"
	"portalmedico-backend/subscriptions"

	"github.com/gin-gonic/gin"
)

// checkout es lo que la farmacia necesita del orquestador de pagos.
type checkout interface {
	BeginCheckout(ctx context.Context, userID int, req subscriptions.CheckoutRequest) (*subscriptions.CheckoutResult, error)
}

type Handler struct {
	repo *Repository
	orch checkout
}

func NewHandler(repo *Repository, orch checkout) *Handler {
	return &Handler{repo: repo, orch: orch}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/farmacia/productos", h.productos)
	r.POST("/farmacia/checkout", login.RequireRole(), h.checkout)
}

func (h *Handler) productos(c *gin.Context) {
	productos, err := h.repo.GetProductos()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": productos})
}

// checkout resuelve cada línea contra el catálogo (el precio siempre sale
// de la base, nunca del cliente) y delega la sesión de pago único al
// orquestador.
func (h *Handler) checkout(c *gin.Context) {
	if h.orch == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Pagos no configurados"})
		return
	}
	actor := login.ActorFromContext(c)
	var body struct {
		Items []struct {
			ProductoID int   `json:"producto_id" binding:"required"`
			Cantidad   int64 `json:"cantidad" binding:"required,gt=0"`
		} `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos inválidos"})
		return
	}
	items := make([]subscriptions.ItemCarrito, 0, len(body.Items))
	for _, it := range body.Items {
		p, err := h.repo.GetProductoByID(it.ProductoID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if p == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Producto no encontrado"})
			return
		}
		items = append(items, subscriptions.ItemCarrito{
			Nombre:         p.Nombre,
			PrecioUnitario: p.Precio,
			Cantidad:       it.Cantidad,
		})
	}
	res, err := h.orch.BeginCheckout(c.Request.Context(), actor.ID, subscriptions.CheckoutRequest{
		Tipo:  subscriptions.TipoCarrito,
		Items: items,
	})
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": res.SessionID, "checkout_url": res.URL})
}
