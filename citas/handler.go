package citas

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
	r.GET("/citas", login.RequireRole(migrations.RoleDoctor), h.listar)
	r.GET("/mis-citas", login.RequireRole(migrations.RolePaciente), h.listarPaciente)
	r.POST("/citas", login.RequireRole(migrations.RolePaciente), h.agendar)
	r.POST("/citas/:id/estado", login.RequireRole(migrations.RoleDoctor), h.cambiarEstado)
}

func (h *Handler) listar(c *gin.Context) {
	actor := login.ActorFromContext(c)
	citas, err := h.repo.ListByDoctor(actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": citas})
}

func (h *Handler) listarPaciente(c *gin.Context) {
	actor := login.ActorFromContext(c)
	citas, err := h.repo.ListByPaciente(actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": citas})
}

// agendar crea la cita en AGENDADA; el ciclo de vida posterior es del doctor.
func (h *Handler) agendar(c *gin.Context) {
	actor := login.ActorFromContext(c)
	var body struct {
		DoctorID  int       `json:"doctor_id" binding:"required"`
		FechaHora time.Time `json:"fecha_hora" binding:"required"`
		Modalidad string    `json:"modalidad"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos inválidos"})
		return
	}
	cita := &Cita{PacienteID: actor.ID, DoctorID: body.DoctorID, FechaHora: body.FechaHora, Modalidad: body.Modalidad}
	if err := h.repo.Create(cita); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cita)
}

// cambiarEstado relee la cita y delega en el manager. El cuerpo trae el
// estado destino; la hora de evaluación es el reloj del servidor.
func (h *Handler) cambiarEstado(c *gin.Context) {
	actor := login.ActorFromContext(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	var body struct {
		Estado Estado `json:"estado" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos inválidos"})
		return
	}
	cita, err := h.repo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cita == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cita no encontrada"})
		return
	}
	if cita.DoctorID != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "La cita pertenece a otro doctor"})
		return
	}
	res, err := h.manager.Transition(c.Request.Context(), cita, body.Estado, time.Now())
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "estado": res.Estado, "mensaje": res.Mensaje})
}
