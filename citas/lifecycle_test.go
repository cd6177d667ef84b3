package citas

import (
	"context"
	"errors"
	"testing"
	"time"

	"portalmedico-backend/errs"
	"portalmedico-backend/notify"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newTestManager(t *testing.T) (*Manager, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	m := NewManager(NewRepository(db), notify.NewHub())
	return m, mock, func() { db.Close() }
}

func TestPuedeTransitar_tabla(t *testing.T) {
	estados := []Estado{EstadoAgendada, EstadoConfirmada, EstadoCompletada, EstadoNoAsistio, EstadoCancelada}
	permitidas := map[[2]Estado]bool{
		{EstadoAgendada, EstadoConfirmada}:   true,
		{EstadoAgendada, EstadoCancelada}:    true,
		{EstadoConfirmada, EstadoCompletada}: true,
		{EstadoConfirmada, EstadoNoAsistio}:  true,
		{EstadoConfirmada, EstadoCancelada}:  true,
	}
	for _, desde := range estados {
		for _, hasta := range estados {
			got := PuedeTransitar(desde, hasta)
			want := permitidas[[2]Estado{desde, hasta}]
			if got != want {
				t.Errorf("PuedeTransitar(%s, %s) = %v, want %v", desde, hasta, got, want)
			}
		}
	}
}

func TestTransition_parIlegalNoEscribe(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	ahora := time.Now()
	cita := &Cita{ID: 7, DoctorID: 1, FechaHora: ahora.Add(-time.Hour), Estado: EstadoAgendada}
	_, err := m.Transition(context.Background(), cita, EstadoCompletada, ahora)
	var pe *errs.Precondition
	if !errors.As(err, &pe) {
		t.Fatalf("expected Precondition, got %v", err)
	}
	if cita.Estado != EstadoAgendada {
		t.Fatalf("estado mutated on rejection: %s", cita.Estado)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected DB activity: %v", err)
	}
}

func TestTransition_completarAntesDeTiempo(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	ahora := time.Now()
	cita := &Cita{ID: 7, DoctorID: 1, FechaHora: ahora.Add(30 * time.Minute), Estado: EstadoConfirmada}
	_, err := m.Transition(context.Background(), cita, EstadoCompletada, ahora)
	var pe *errs.Precondition
	if !errors.As(err, &pe) {
		t.Fatalf("expected Precondition for early completion, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected DB activity: %v", err)
	}
}

func TestTransition_completarEnHora(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	ahora := time.Now()
	cita := &Cita{ID: 7, DoctorID: 1, FechaHora: ahora.Add(-time.Minute), Estado: EstadoConfirmada}
	mock.ExpectExec("UPDATE citas SET estado=").
		WithArgs(string(EstadoCompletada), 7, string(EstadoConfirmada)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := m.Transition(context.Background(), cita, EstadoCompletada, ahora)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Estado != EstadoCompletada {
		t.Fatalf("estado = %s, want COMPLETADA", res.Estado)
	}
	if res.Mensaje == "" {
		t.Fatalf("missing confirmation message")
	}
	if cita.Estado != EstadoCompletada {
		t.Fatalf("cita not updated in memory after accepted write")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTransition_confirmar(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	ahora := time.Now()
	cita := &Cita{ID: 3, DoctorID: 2, FechaHora: ahora.Add(time.Hour), Estado: EstadoAgendada}
	mock.ExpectExec("UPDATE citas SET estado=").
		WithArgs(string(EstadoConfirmada), 3, string(EstadoAgendada)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := m.Transition(context.Background(), cita, EstadoConfirmada, ahora)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Mensaje != "Cita confirmada" {
		t.Fatalf("mensaje = %q", res.Mensaje)
	}
}

func TestTransition_noAsistioDesdeConfirmada(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	// no-show no lleva guarda temporal: se acepta aun antes de la hora agendada
	ahora := time.Now()
	cita := &Cita{ID: 4, DoctorID: 2, FechaHora: ahora.Add(time.Hour), Estado: EstadoConfirmada}
	mock.ExpectExec("UPDATE citas SET estado=").
		WithArgs(string(EstadoNoAsistio), 4, string(EstadoConfirmada)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := m.Transition(context.Background(), cita, EstadoNoAsistio, ahora); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransition_conflictoConcurrente(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	ahora := time.Now()
	cita := &Cita{ID: 9, DoctorID: 1, FechaHora: ahora.Add(-time.Hour), Estado: EstadoConfirmada}
	// el compare-and-set no afecta filas: otro actor movió la cita primero
	mock.ExpectExec("UPDATE citas SET estado=").
		WithArgs(string(EstadoCompletada), 9, string(EstadoConfirmada)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := m.Transition(context.Background(), cita, EstadoCompletada, ahora)
	var ce *errs.Conflict
	if !errors.As(err, &ce) {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if cita.Estado != EstadoConfirmada {
		t.Fatalf("estado mutated on conflict: %s", cita.Estado)
	}
}

func TestTransition_destinoDesconocido(t *testing.T) {
	m, mock, done := newTestManager(t)
	defer done()

	cita := &Cita{ID: 1, DoctorID: 1, Estado: EstadoAgendada}
	_, err := m.Transition(context.Background(), cita, Estado("REPROGRAMADA"), time.Now())
	var ve *errs.Validation
	if !errors.As(err, &ve) {
		t.Fatalf("expected Validation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected DB activity: %v", err)
	}
}
