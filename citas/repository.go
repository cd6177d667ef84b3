package citas

import (
	"context"
	"database/sql"

	"portalmedico-backend/errs"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetByID returns the appointment or nil when it does not exist.
func (r *Repository) GetByID(id int) (*Cita, error) {
	row := r.db.QueryRow(`SELECT id, paciente_id, doctor_id, fecha_hora, modalidad, estado FROM citas WHERE id=? LIMIT 1`, id)
	var c Cita
	if err := row.Scan(&c.ID, &c.PacienteID, &c.DoctorID, &c.FechaHora, &c.Modalidad, &c.Estado); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) ListByDoctor(doctorID int) ([]Cita, error) {
	rows, err := r.db.Query(`SELECT id, paciente_id, doctor_id, fecha_hora, modalidad, estado FROM citas WHERE doctor_id=? ORDER BY fecha_hora ASC`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	citas := []Cita{}
	for rows.Next() {
		var c Cita
		if err := rows.Scan(&c.ID, &c.PacienteID, &c.DoctorID, &c.FechaHora, &c.Modalidad, &c.Estado); err != nil {
			return nil, err
		}
		citas = append(citas, c)
	}
	return citas, nil
}

func (r *Repository) ListByPaciente(pacienteID int) ([]Cita, error) {
	rows, err := r.db.Query(`SELECT id, paciente_id, doctor_id, fecha_hora, modalidad, estado FROM citas WHERE paciente_id=? ORDER BY fecha_hora ASC`, pacienteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	citas := []Cita{}
	for rows.Next() {
		var c Cita
		if err := rows.Scan(&c.ID, &c.PacienteID, &c.DoctorID, &c.FechaHora, &c.Modalidad, &c.Estado); err != nil {
			return nil, err
		}
		citas = append(citas, c)
	}
	return citas, nil
}

// Create inserts a new appointment in AGENDADA state.
func (r *Repository) Create(c *Cita) error {
	if c.Estado == "" {
		c.Estado = EstadoAgendada
	}
	if c.Modalidad == "" {
		c.Modalidad = ModalidadPresencial
	}
	res, err := r.db.Exec(`INSERT INTO citas (paciente_id, doctor_id, fecha_hora, modalidad, estado) VALUES (?,?,?,?,?)`,
		c.PacienteID, c.DoctorID, c.FechaHora, c.Modalidad, c.Estado)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = int(id)
	return nil
}

// UpdateEstado applies a compare-and-set on the status column: the write
// only lands when the stored status still equals desde. Zero affected rows
// means someone else moved the appointment first.
func (r *Repository) UpdateEstado(ctx context.Context, id int, desde, hasta Estado) error {
	res, err := r.db.ExecContext(ctx, `UPDATE citas SET estado=?, updated_at=NOW() WHERE id=? AND estado=?`, hasta, id, desde)
	if err != nil {
		return &errs.Persistence{Msg: "no se pudo actualizar la cita", Cause: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &errs.Persistence{Msg: "no se pudo actualizar la cita", Cause: err}
	}
	if n == 0 {
		return errs.Conflictf("la cita cambió de estado; actualiza la página")
	}
	return nil
}
