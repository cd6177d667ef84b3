package solicitudes

import (
	"net/http"
	"strconv"
	"time"

	"portalmedico-backend/errs"
	"portalmedico-backend/login"
	"portalmedico-backend/migrations"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo    *Repository
	manager *Manager
}

func NewHandler(repo *Repository, manager *Manager) *Handler {
	return &Handler{repo: repo, manager: manager}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// el intake llega de la verificación externa, sin sesión
	r.POST("/solicitudes", h.crear)

	director := login.RequireRole(migrations.RoleDirector)
	r.GET("/solicitudes", director, h.listar)
	r.GET("/solicitudes/:id", director, h.detalle)
	r.POST("/solicitudes/:id/decision", director, h.decidir)
}

// crear recibe la solicitud del pipeline de intake, corre el chequeo de
// documentos PDF y la deja PENDIENTE con sus marcas.
func (h *Handler) crear(c *gin.Context) {
	var body struct {
		Nombre         string      `json:"nombre" binding:"required"`
		Email          string      `json:"email" binding:"required,email"`
		Telefono       string      `json:"telefono"`
		RegistroMedico string      `json:"registro_medico"`
		Documentos     []Documento `json:"documentos"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos inválidos"})
		return
	}
	s := &Solicitud{
		Nombre:         body.Nombre,
		Email:          body.Email,
		Telefono:       body.Telefono,
		RegistroMedico: body.RegistroMedico,
		Documentos:     body.Documentos,
		CreatedAt:      time.Now(),
	}
	s.ErroresValidacion = ValidarDocumentos(s.Documentos)
	if err := h.repo.Create(s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) listar(c *gin.Context) {
	estado := Estado(c.Query("estado"))
	items, err := h.repo.List(estado)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *Handler) detalle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	s, err := h.repo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Solicitud no encontrada"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// decidir relee la solicitud y delega en el manager.
func (h *Handler) decidir(c *gin.Context) {
	actor := login.ActorFromContext(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	var body struct {
		Decision Decision `json:"decision" binding:"required"`
		Motivo   string   `json:"motivo"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos inválidos"})
		return
	}
	s, err := h.repo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Solicitud no encontrada"})
		return
	}
	res, err := h.manager.Decidir(c.Request.Context(), s, body.Decision, body.Motivo, actor.ID)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "estado": res.Estado, "mensaje": res.Mensaje})
}
