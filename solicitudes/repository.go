package solicitudes

import (
	"context"
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

func scanSolicitud(row *sql.Row) (*Solicitud, error) {
	var s Solicitud
	var motivo, errores sql.NullString
	if err := row.Scan(&s.ID, &s.Nombre, &s.Email, &s.Telefono, &s.RegistroMedico, &s.Estado, &motivo, &errores, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.Motivo = motivo.String
	if errores.String != "" {
		s.ErroresValidacion = strings.Split(errores.String, ";")
	}
	return &s, nil
}

// GetByID returns the request with its documents, or nil when missing.
func (r *Repository) GetByID(id int) (*Solicitud, error) {
	row := r.db.QueryRow(`SELECT id, nombre, email, telefono, registro_medico, estado, motivo, errores_validacion, created_at FROM solicitudes WHERE id=? LIMIT 1`, id)
	s, err := scanSolicitud(row)
	if err != nil || s == nil {
		return s, err
	}
	docs, err := r.documentos(s.ID)
	if err != nil {
		return nil, err
	}
	s.Documentos = docs
	return s, nil
}

func (r *Repository) documentos(solicitudID int) ([]Documento, error) {
	rows, err := r.db.Query(`SELECT id, nombre, ruta FROM solicitud_documentos WHERE solicitud_id=?`, solicitudID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := []Documento{}
	for rows.Next() {
		var d Documento
		if err := rows.Scan(&d.ID, &d.Nombre, &d.Ruta); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// List returns requests, optionally filtered by estado.
func (r *Repository) List(estado Estado) ([]Solicitud, error) {
	query := `SELECT id, nombre, email, telefono, registro_medico, estado, motivo, errores_validacion, created_at FROM solicitudes WHERE (?='' OR estado=?) ORDER BY created_at ASC`
	rows, err := r.db.Query(query, string(estado), string(estado))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Solicitud{}
	for rows.Next() {
		var s Solicitud
		var motivo, errores sql.NullString
		if err := rows.Scan(&s.ID, &s.Nombre, &s.Email, &s.Telefono, &s.RegistroMedico, &s.Estado, &motivo, &errores, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Motivo = motivo.String
		if errores.String != "" {
			s.ErroresValidacion = strings.Split(errores.String, ";")
		}
		out = append(out, s)
	}
	return out, nil
}

// Create inserts an intake request in PENDIENTE state with its documents.
func (r *Repository) Create(s *Solicitud) error {
	if s.Estado == "" {
		s.Estado = EstadoPendiente
	}
	errores := strings.Join(s.ErroresValidacion, ";")
	res, err := r.db.Exec(`INSERT INTO solicitudes (nombre, email, telefono, registro_medico, estado, errores_validacion) VALUES (?,?,?,?,?,?)`,
		s.Nombre, s.Email, s.Telefono, s.RegistroMedico, s.Estado, errores)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = int(id)
	for i := range s.Documentos {
		d := &s.Documentos[i]
		dres, err := r.db.Exec(`INSERT INTO solicitud_documentos (solicitud_id, nombre, ruta) VALUES (?,?,?)`, s.ID, d.Nombre, d.Ruta)
		if err != nil {
			return err
		}
		did, err := dres.LastInsertId()
		if err != nil {
			return err
		}
		d.ID = int(did)
	}
	return nil
}

// Decidir writes the decision with a compare-and-set on PENDIENTE: once a
// request left PENDIENTE no further decision can land on it.
func (r *Repository) Decidir(ctx context.Context, id int, destino Estado, motivo string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE solicitudes SET estado=?, motivo=?, updated_at=NOW() WHERE id=? AND estado=?`,
		destino, motivo, id, EstadoPendiente)
	if err != nil {
		return &errs.Persistence{Msg: "no se pudo registrar la decisión", Cause: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &errs.Persistence{Msg: "no se pudo registrar la decisión", Cause: err}
	}
	if n == 0 {
		return errs.Conflictf("la solicitud ya fue decidida; actualiza la página")
	}
	return nil
}
