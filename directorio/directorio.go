package directorio

import (
	"database/sql"
	"net/http"
	"strings"

	"portalmedico-backend/migrations"

	"github.com/gin-gonic/gin"
)

// Doctor es la ficha pública del directorio, sin credenciales ni datos
// internos del usuario.
type Doctor struct {
	ID           int    `json:"id"`
	Nombre       string `json:"nombre"`
	Especialidad string `json:"especialidad"`
	Ciudad       string `json:"ciudad"`
	Email        string `json:"email"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// List returns active doctors, optionally filtered by specialty and city.
// Empty filters match everything.
func (r *Repository) List(especialidad, ciudad string) ([]Doctor, error) {
	rows, err := r.db.Query(`SELECT id, first_name, last_name, IFNULL(especialidad,''), IFNULL(city,''), email
		FROM users
		WHERE role=? AND (?='' OR especialidad=?) AND (?='' OR city=?)
		ORDER BY last_name ASC, first_name ASC`,
		migrations.RoleDoctor, especialidad, especialidad, ciudad, ciudad)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	doctores := []Doctor{}
	for rows.Next() {
		var d Doctor
		var first, last string
		if err := rows.Scan(&d.ID, &first, &last, &d.Especialidad, &d.Ciudad, &d.Email); err != nil {
			return nil, err
		}
		d.Nombre = strings.TrimSpace(first + " " + last)
		doctores = append(doctores, d)
	}
	return doctores, nil
}

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/doctores", h.list)
}

func (h *Handler) list(c *gin.Context) {
	doctores, err := h.repo.List(c.Query("especialidad"), c.Query("ciudad"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": doctores})
}
