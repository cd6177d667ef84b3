package farmacia

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"portalmedico-backend/login"
	"portalmedico-backend/subscriptions"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

type fakeCheckout struct {
	lastUserID int
	lastReq    subscriptions.CheckoutRequest
	res        *subscriptions.CheckoutResult
	err        error
}

func (f *fakeCheckout) BeginCheckout(_ context.Context, userID int, req subscriptions.CheckoutRequest) (*subscriptions.CheckoutResult, error) {
	f.lastUserID = userID
	f.lastReq = req
	return f.res, f.err
}

func newTestRouter(t *testing.T, fake *fakeCheckout) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	h := NewHandler(NewRepository(db), fake)
	r := gin.New()
	r.GET("/farmacia/productos", h.productos)
	r.POST("/farmacia/checkout", func(c *gin.Context) {
		c.Set("actor", &login.Actor{ID: 9, Role: "paciente"})
	}, h.checkout)
	return r, mock, func() { _ = db.Close() }
}

func productoRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "nombre", "precio", "stock"})
}

func TestProductos_lista(t *testing.T) {
	r, mock, done := newTestRouter(t, &fakeCheckout{})
	defer done()
	mock.ExpectQuery("SELECT id, nombre, precio, stock FROM productos ORDER BY nombre").
		WillReturnRows(productoRows().
			AddRow(1, "Ibuprofeno 400mg", 5.50, 100).
			AddRow(2, "Paracetamol 500mg", 3.25, 80))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/farmacia/productos", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var out struct {
		Data []Producto `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Data) != 2 || out.Data[0].Nombre != "Ibuprofeno 400mg" {
		t.Fatalf("unexpected payload: %+v", out.Data)
	}
}

func TestCheckout_preciosDesdeCatalogo(t *testing.T) {
	fake := &fakeCheckout{res: &subscriptions.CheckoutResult{SessionID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}}
	r, mock, done := newTestRouter(t, fake)
	defer done()
	mock.ExpectQuery("SELECT id, nombre, precio, stock FROM productos WHERE id=").
		WithArgs(1).
		WillReturnRows(productoRows().AddRow(1, "Ibuprofeno 400mg", 5.50, 100))
	mock.ExpectQuery("SELECT id, nombre, precio, stock FROM productos WHERE id=").
		WithArgs(2).
		WillReturnRows(productoRows().AddRow(2, "Paracetamol 500mg", 3.25, 80))

	body := []byte(`{"items":[{"producto_id":1,"cantidad":2},{"producto_id":2,"cantidad":1}]}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/farmacia/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if fake.lastUserID != 9 {
		t.Fatalf("user = %d, want actor 9", fake.lastUserID)
	}
	if fake.lastReq.Tipo != subscriptions.TipoCarrito || len(fake.lastReq.Items) != 2 {
		t.Fatalf("unexpected checkout request: %+v", fake.lastReq)
	}
	// the unit price comes from the catalog row, never from the client
	it := fake.lastReq.Items[0]
	if it.Nombre != "Ibuprofeno 400mg" || it.PrecioUnitario != 5.50 || it.Cantidad != 2 {
		t.Fatalf("unexpected item: %+v", it)
	}
}

func TestCheckout_productoInexistente(t *testing.T) {
	fake := &fakeCheckout{}
	r, mock, done := newTestRouter(t, fake)
	defer done()
	mock.ExpectQuery("SELECT id, nombre, precio, stock FROM productos WHERE id=").
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	body := []byte(`{"items":[{"producto_id":99,"cantidad":1}]}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/farmacia/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if fake.lastReq.Tipo != "" {
		t.Fatalf("checkout must not be reached for unknown products")
	}
}

func TestCheckout_cantidadInvalida(t *testing.T) {
	fake := &fakeCheckout{}
	r, _, done := newTestRouter(t, fake)
	defer done()

	body := []byte(`{"items":[{"producto_id":1,"cantidad":0}]}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/farmacia/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCheckout_carritoVacio(t *testing.T) {
	fake := &fakeCheckout{}
	r, _, done := newTestRouter(t, fake)
	defer done()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/farmacia/checkout", bytes.NewReader([]byte(`{"items":[]}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
