package farmacia

import "database/sql"

type Producto struct {
	ID     int     `json:"id"`
	Nombre string  `json:"nombre"`
	Precio float64 `json:"precio"`
	Stock  int     `json:"stock"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetProductos() ([]Producto, error) {
	rows, err := r.db.Query(`SELECT id, nombre, precio, stock FROM productos ORDER BY nombre ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	productos := []Producto{}
	for rows.Next() {
		var p Producto
		if err := rows.Scan(&p.ID, &p.Nombre, &p.Precio, &p.Stock); err != nil {
			return nil, err
		}
		productos = append(productos, p)
	}
	return productos, nil
}

// GetProductoByID returns the product or nil when it does not exist.
func (r *Repository) GetProductoByID(id int) (*Producto, error) {
	row := r.db.QueryRow(`SELECT id, nombre, precio, stock FROM productos WHERE id=? LIMIT 1`, id)
	var p Producto
	if err := row.Scan(&p.ID, &p.Nombre, &p.Precio, &p.Stock); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
