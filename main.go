package main

import (
	"log"

	"portalmedico-backend/citas"
	"portalmedico-backend/conn"
	"portalmedico-backend/directorio"
	"portalmedico-backend/farmacia"
	"portalmedico-backend/login"
	"portalmedico-backend/migrations"
	"portalmedico-backend/notify"
	"portalmedico-backend/solicitudes"
	"portalmedico-backend/sse"
	"portalmedico-backend/stats"
	"portalmedico-backend/subscriptions"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[MAIN] sin .env, usando variables de entorno")
	}

	db, err := conn.NewMySQL()
	if err != nil {
		log.Fatalf("[MAIN] mysql: %v", err)
	}
	defer db.Close()

	migrations.Init(db)
	stats.Init(db)
	if err := migrations.Migrate(); err != nil {
		log.Fatalf("[MAIN] migrate: %v", err)
	}
	if err := migrations.SeedDefaultUsers(); err != nil {
		log.Printf("[MAIN] seed users: %v", err)
	}
	if err := migrations.SeedDefaultPlans(); err != nil {
		log.Printf("[MAIN] seed plans: %v", err)
	}
	if err := migrations.SeedDefaultProductos(); err != nil {
		log.Printf("[MAIN] seed productos: %v", err)
	}

	hub := notify.NewHub()

	citasRepo := citas.NewRepository(db)
	solRepo := solicitudes.NewRepository(db)
	subsRepo := subscriptions.NewRepository(db)
	farmRepo := farmacia.NewRepository(db)
	dirRepo := directorio.NewRepository(db)

	orch := subscriptions.NewOrchestratorFromEnv(subsRepo, hub)
	if orch == nil {
		log.Printf("[MAIN] STRIPE_SECRET_KEY ausente; pagos deshabilitados")
	}

	r := gin.Default()

	r.POST("/login", login.Handler)
	r.POST("/register", login.RegisterHandler)
	r.GET("/session", login.SessionHandler)
	r.POST("/logout", login.LogoutHandler)
	r.POST("/refresh", login.RefreshHandler)
	r.POST("/change-password", login.ChangePasswordHandler)

	citas.NewHandler(citasRepo, citas.NewManager(citasRepo, hub)).RegisterRoutes(r)
	solicitudes.NewHandler(solRepo, solicitudes.NewManager(solRepo, hub)).RegisterRoutes(r)
	subscriptions.NewHandler(subsRepo, orch).RegisterRoutes(r)
	// a nil *Orchestrator inside the interface would not compare equal to nil
	fh := farmacia.NewHandler(farmRepo, nil)
	if orch != nil {
		fh = farmacia.NewHandler(farmRepo, orch)
	}
	fh.RegisterRoutes(r)
	directorio.NewHandler(dirRepo).RegisterRoutes(r)
	stats.RegisterAdminRoutes(r)

	r.GET("/notificaciones/stream", login.RequireRole(), func(c *gin.Context) {
		actor := login.ActorFromContext(c)
		ch, cancel := hub.Subscribe(actor.ID)
		defer cancel()
		sse.Stream(c, ch)
	})

	r.Run(":8080")
}
