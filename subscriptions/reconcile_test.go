package subscriptions

import (
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	stripe "github.com/stripe/stripe-go/v78"
)

func TestActivateSubscription_primeraSuscripcion(t *testing.T) {
	o, _, mock, done := newTestOrchestrator(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, plan_id FROM subscriptions WHERE user_id=").
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id"}))
	mock.ExpectExec("INSERT INTO subscriptions").
		WithArgs(9, 2).
		WillReturnResult(sqlmock.NewResult(50, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, codigo, name, currency, price, billing, consultations, beneficios FROM subscription_plans WHERE id=").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(planColumns()).AddRow(2, "basico", "Básico", "USD", 9.99, "Mensual", 4, ""))

	id, err := o.SubscriptionActivated(9, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 50 {
		t.Fatalf("id = %d, want 50", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestActivateSubscription_sustituyeLaAnterior(t *testing.T) {
	o, _, mock, done := newTestOrchestrator(t)
	defer done()

	// el usuario está ACTIVO en completo (plan 3) y concilia un pago de basico (plan 2)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, plan_id FROM subscriptions WHERE user_id=").
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id"}).AddRow(30, 3))
	mock.ExpectExec("UPDATE subscriptions SET estado='SUSTITUIDA'").
		WithArgs(30).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subscriptions").
		WithArgs(9, 2).
		WillReturnResult(sqlmock.NewResult(51, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, codigo, name, currency, price, billing, consultations, beneficios FROM subscription_plans WHERE id=").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(planColumns()).AddRow(2, "basico", "Básico", "USD", 9.99, "Mensual", 4, ""))

	id, err := o.SubscriptionActivated(9, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 51 {
		t.Fatalf("id = %d, want 51", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestActivateSubscription_replayMismoPlan(t *testing.T) {
	o, _, mock, done := newTestOrchestrator(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, plan_id FROM subscriptions WHERE user_id=").
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id"}).AddRow(30, 2))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, codigo, name, currency, price, billing, consultations, beneficios FROM subscription_plans WHERE id=").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(planColumns()).AddRow(2, "basico", "Básico", "USD", 9.99, "Mensual", 4, ""))

	// replay del mismo evento: devuelve la existente, no inserta otra
	id, err := o.SubscriptionActivated(9, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 30 {
		t.Fatalf("id = %d, want existing 30", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConfirmSession_sesionIncompleta(t *testing.T) {
	o, fake, _, done := newTestOrchestrator(t)
	defer done()
	fake.getSess = &stripe.CheckoutSession{ID: "cs_test_1", Status: stripe.CheckoutSessionStatusOpen}

	created, _, err := o.ConfirmSession("cs_test_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("incomplete session must not activate anything")
	}
}

func TestConfirmSession_completaActiva(t *testing.T) {
	o, fake, mock, done := newTestOrchestrator(t)
	defer done()
	fake.getSess = &stripe.CheckoutSession{
		ID:       "cs_test_1",
		Status:   stripe.CheckoutSessionStatusComplete,
		Metadata: map[string]string{"user_id": "9", "plan_id": "2"},
	}

	mock.ExpectQuery("SELECT s.id, s.user_id, s.plan_id, s.estado").
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, plan_id FROM subscriptions WHERE user_id=").
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id"}))
	mock.ExpectExec("INSERT INTO subscriptions").
		WithArgs(9, 2).
		WillReturnResult(sqlmock.NewResult(52, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, codigo, name, currency, price, billing, consultations, beneficios FROM subscription_plans WHERE id=").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(planColumns()).AddRow(2, "basico", "Básico", "USD", 9.99, "Mensual", 4, ""))

	created, id, err := o.ConfirmSession("cs_test_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || id != 52 {
		t.Fatalf("created=%v id=%d, want created id 52", created, id)
	}
}

func TestConfirmSession_idempotenteSiYaActiva(t *testing.T) {
	o, fake, mock, done := newTestOrchestrator(t)
	defer done()
	fake.getSess = &stripe.CheckoutSession{
		ID:       "cs_test_1",
		Status:   stripe.CheckoutSessionStatusComplete,
		Metadata: map[string]string{"user_id": "9", "plan_id": "2"},
	}
	cols := []string{"id", "user_id", "plan_id", "estado", "start_date", "end_date",
		"p_id", "codigo", "name", "currency", "price", "billing", "consultations", "beneficios"}
	mock.ExpectQuery("SELECT s.id, s.user_id, s.plan_id, s.estado").
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(52, 9, 2, "ACTIVA", time.Now(), nil, 2, "basico", "Básico", "USD", 9.99, "Mensual", 4, ""))

	created, id, err := o.ConfirmSession("cs_test_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created || id != 52 {
		t.Fatalf("replay must be a no-op: created=%v id=%d", created, id)
	}
}
