package stats

import (
	"database/sql"
	"log"
	"net/http"

	"portalmedico-backend/login"
	"portalmedico-backend/migrations"

	"github.com/gin-gonic/gin"
)

var db *sql.DB

// Init sets the DB connection for stats queries
func Init(database *sql.DB) {
	db = database
}

// AdminStatsResponse represents the response structure for the director dashboard
type AdminStatsResponse struct {
	Users       UserStats      `json:"users"`
	Citas       map[string]int `json:"citas"`
	Solicitudes map[string]int `json:"solicitudes"`
	Financial   FinancialStats `json:"financial"`
	Plans       []PlanStats    `json:"plans"`
}

type UserStats struct {
	Total     int `json:"total"`
	Pacientes int `json:"pacientes"`
	Doctores  int `json:"doctores"`
}

type FinancialStats struct {
	TotalRevenue   float64 `json:"total_revenue"`
	ActiveSubs     int     `json:"active_subscriptions"`
	ConversionRate float64 `json:"conversion_rate"`
}

type PlanStats struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	SubscriberCount int     `json:"subscriber_count"`
	Percentage      float64 `json:"percentage"`
	Revenue         float64 `json:"revenue"`
}

// RegisterAdminRoutes registers director statistics endpoints
func RegisterAdminRoutes(r *gin.Engine) {
	r.GET("/admin/stats", login.RequireRole(migrations.RoleDirector), getAdminStats)
}

// getAdminStats returns comprehensive statistics for the director dashboard
func getAdminStats(c *gin.Context) {
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database not initialized"})
		return
	}

	log.Printf("[ADMIN_STATS] Fetching director statistics")

	response := AdminStatsResponse{
		Users:       getUserStats(),
		Citas:       countByEstado("citas"),
		Solicitudes: countByEstado("solicitudes"),
		Financial:   getFinancialStats(),
		Plans:       getPlanStats(),
	}

	c.JSON(http.StatusOK, gin.H{"data": response})
}

func getUserStats() UserStats {
	stats := UserStats{}

	db.QueryRow("SELECT COUNT(*) FROM users").Scan(&stats.Total)
	db.QueryRow("SELECT COUNT(*) FROM users WHERE role=?", migrations.RolePaciente).Scan(&stats.Pacientes)
	db.QueryRow("SELECT COUNT(*) FROM users WHERE role=?", migrations.RoleDoctor).Scan(&stats.Doctores)

	return stats
}

// countByEstado groups a lifecycle table by its estado column. Both citas
// and solicitudes carry one, so the dashboard shows the same breakdown.
func countByEstado(table string) map[string]int {
	out := map[string]int{}
	rows, err := db.Query("SELECT estado, COUNT(*) FROM " + table + " GROUP BY estado")
	if err != nil {
		log.Printf("[ADMIN_STATS] %s breakdown error: %v", table, err)
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var estado string
		var n int
		if err := rows.Scan(&estado, &n); err != nil {
			continue
		}
		out[estado] = n
	}
	return out
}

func getFinancialStats() FinancialStats {
	stats := FinancialStats{}

	db.QueryRow(`
		SELECT IFNULL(SUM(p.price), 0)
		FROM subscriptions s
		JOIN subscription_plans p ON s.plan_id = p.id
		WHERE p.price > 0
	`).Scan(&stats.TotalRevenue)

	db.QueryRow(`SELECT COUNT(*) FROM subscriptions WHERE estado='ACTIVA'`).Scan(&stats.ActiveSubs)

	var totalUsers int
	db.QueryRow("SELECT COUNT(*) FROM users").Scan(&totalUsers)
	if totalUsers > 0 {
		stats.ConversionRate = (float64(stats.ActiveSubs) / float64(totalUsers)) * 100
	}

	log.Printf("[ADMIN_STATS] Financial: revenue=%.2f active=%d conversion=%.2f%%",
		stats.TotalRevenue, stats.ActiveSubs, stats.ConversionRate)

	return stats
}

func getPlanStats() []PlanStats {
	plans := []PlanStats{}

	rows, err := db.Query(`
		SELECT p.id, p.name,
		       COUNT(s.id) AS subscribers,
		       IFNULL(SUM(p.price), 0) AS revenue
		FROM subscription_plans p
		LEFT JOIN subscriptions s ON s.plan_id = p.id AND s.estado='ACTIVA'
		GROUP BY p.id, p.name
		ORDER BY subscribers DESC
	`)
	if err != nil {
		log.Printf("[ADMIN_STATS] plan breakdown error: %v", err)
		return plans
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var p PlanStats
		if err := rows.Scan(&p.ID, &p.Name, &p.SubscriberCount, &p.Revenue); err != nil {
			continue
		}
		total += p.SubscriberCount
		plans = append(plans, p)
	}
	for i := range plans {
		if total > 0 {
			plans[i].Percentage = (float64(plans[i].SubscriberCount) / float64(total)) * 100
		}
	}

	return plans
}
