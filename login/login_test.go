package login

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portalmedico-backend/migrations"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func userColumns() []string {
	return []string{"id", "first_name", "last_name", "email", "password", "role",
		"especialidad", "city", "created_at", "updated_at"}
}

func expectUser(mock sqlmock.Sqlmock, email, role string, id int) {
	now := time.Now()
	mock.ExpectQuery("SELECT id, first_name, last_name, email, password, role").
		WithArgs(email).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(id, "Ana", "Pérez", email, "secreta", role, "", "", now, now))
}

func TestTokenRoundTrip(t *testing.T) {
	token, exp, err := signToken("ana@example.com", migrations.RoleDoctor, time.Hour, false)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if exp <= time.Now().Unix() {
		t.Fatalf("exp in the past: %d", exp)
	}
	tp, ok := parseToken(token)
	if !ok {
		t.Fatalf("token did not verify")
	}
	if tp.Email != "ana@example.com" || tp.Role != migrations.RoleDoctor {
		t.Fatalf("unexpected payload: %+v", tp)
	}
}

func TestParseToken_firmaAlterada(t *testing.T) {
	token, _, _ := signToken("ana@example.com", migrations.RolePaciente, time.Hour, false)
	if _, ok := parseToken(token + "x"); ok {
		t.Fatalf("tampered token must not verify")
	}
}

func TestCurrentActor_rolDesdeBase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	migrations.Init(db)

	// el token dice paciente pero la base dice doctor; manda la base
	token, _, _ := signToken("ana@example.com", migrations.RolePaciente, time.Hour, false)
	expectUser(mock, "ana@example.com", migrations.RoleDoctor, 7)

	actor, ok := CurrentActor(token)
	if !ok {
		t.Fatalf("expected actor")
	}
	if actor.ID != 7 || actor.Role != migrations.RoleDoctor {
		t.Fatalf("actor = %+v, want id 7 role doctor", actor)
	}
}

func TestRequireRole_rolInsuficiente(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	migrations.Init(db)

	token, _, _ := signToken("ana@example.com", migrations.RoleDoctor, time.Hour, false)
	expectUser(mock, "ana@example.com", migrations.RoleDoctor, 7)

	r := gin.New()
	r.GET("/solo-director", RequireRole(migrations.RoleDirector), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/solo-director", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestRequireRole_sinToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/privado", RequireRole(), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/privado", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
