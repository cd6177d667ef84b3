package subscriptions

import (
	"database/sql"
	"strings"

	"portalmedico-backend/errs"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func scanPlan(scanner interface{ Scan(...any) error }) (*Plan, error) {
	var p Plan
	var beneficios sql.NullString
	if err := scanner.Scan(&p.ID, &p.Codigo, &p.Nombre, &p.Moneda, &p.Precio, &p.Billing, &p.Consultas, &beneficios); err != nil {
		return nil, err
	}
	if beneficios.String != "" {
		p.Beneficios = strings.Split(beneficios.String, ",")
	}
	return &p, nil
}

func (r *Repository) GetPlans() ([]Plan, error) {
	rows, err := r.db.Query(`SELECT id, codigo, name, currency, price, billing, consultations, beneficios FROM subscription_plans ORDER BY price ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	plans := []Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, nil
}

// GetPlanByCodigo returns the plan for a catalog code, or nil when unknown.
func (r *Repository) GetPlanByCodigo(codigo string) (*Plan, error) {
	row := r.db.QueryRow(`SELECT id, codigo, name, currency, price, billing, consultations, beneficios FROM subscription_plans WHERE codigo=? LIMIT 1`, codigo)
	p, err := scanPlan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetPlanByID(id int) (*Plan, error) {
	row := r.db.QueryRow(`SELECT id, codigo, name, currency, price, billing, consultations, beneficios FROM subscription_plans WHERE id=? LIMIT 1`, id)
	p, err := scanPlan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// GetActiveSubscription returns the user's ACTIVA subscription joined with
// its plan, or nil when the user has none.
func (r *Repository) GetActiveSubscription(userID int) (*Suscripcion, error) {
	row := r.db.QueryRow(`SELECT s.id, s.user_id, s.plan_id, s.estado, s.start_date, s.end_date,
		p.id, p.codigo, p.name, p.currency, p.price, p.billing, p.consultations, p.beneficios
		FROM subscriptions s JOIN subscription_plans p ON s.plan_id = p.id
		WHERE s.user_id = ? AND s.estado = 'ACTIVA' ORDER BY s.id DESC LIMIT 1`, userID)
	var s Suscripcion
	var end sql.NullTime
	var p Plan
	var beneficios sql.NullString
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.Estado, &s.FechaInicio, &end,
		&p.ID, &p.Codigo, &p.Nombre, &p.Moneda, &p.Precio, &p.Billing, &p.Consultas, &beneficios); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if end.Valid {
		s.FechaFin = &end.Time
	}
	if beneficios.String != "" {
		p.Beneficios = strings.Split(beneficios.String, ",")
	}
	s.Plan = &p
	return &s, nil
}

// ActivateSubscription reconcilia un pago exitoso: en una sola transacción
// marca como SUSTITUIDA la ACTIVA anterior (si existe) e inserta la nueva.
// Idempotente: si la ACTIVA actual ya es de ese plan, no crea otra.
func (r *Repository) ActivateSubscription(userID, planID int) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, &errs.Persistence{Msg: "no se pudo activar la suscripción", Cause: err}
	}
	defer tx.Rollback()

	var curID, curPlanID int
	err = tx.QueryRow(`SELECT id, plan_id FROM subscriptions WHERE user_id=? AND estado='ACTIVA' ORDER BY id DESC LIMIT 1`, userID).
		Scan(&curID, &curPlanID)
	switch err {
	case nil:
		if curPlanID == planID {
			// replay del mismo evento de activación: nada que hacer
			return curID, tx.Commit()
		}
		if _, err := tx.Exec(`UPDATE subscriptions SET estado='SUSTITUIDA', end_date=NOW() WHERE id=?`, curID); err != nil {
			return 0, &errs.Persistence{Msg: "no se pudo sustituir la suscripción anterior", Cause: err}
		}
	case sql.ErrNoRows:
		// primera suscripción del usuario
	default:
		return 0, &errs.Persistence{Msg: "no se pudo activar la suscripción", Cause: err}
	}

	res, err := tx.Exec(`INSERT INTO subscriptions (user_id, plan_id, estado, start_date) VALUES (?,?,'ACTIVA',NOW())`, userID, planID)
	if err != nil {
		return 0, &errs.Persistence{Msg: "no se pudo activar la suscripción", Cause: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &errs.Persistence{Msg: "no se pudo activar la suscripción", Cause: err}
	}
	if err := tx.Commit(); err != nil {
		return 0, &errs.Persistence{Msg: "no se pudo activar la suscripción", Cause: err}
	}
	return int(id), nil
}

// CancelSubscription marks the subscription CANCELADA (out-of-band path).
func (r *Repository) CancelSubscription(id int) error {
	_, err := r.db.Exec(`UPDATE subscriptions SET estado='CANCELADA', end_date=NOW() WHERE id=?`, id)
	return err
}
