package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

type User struct {
	ID           int       `db:"id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Email        string    `db:"email"`
	Password     string    `db:"password"`
	Role         string    `db:"role"`
	Especialidad string    `db:"especialidad"`
	City         string    `db:"city"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Roles conocidos del portal.
const (
	RolePaciente = "paciente"
	RoleDoctor   = "doctor"
	RoleDirector = "director"
)

var db *sql.DB

// Init sets the DB connection for migrations and queries
func Init(database *sql.DB) {
	db = database
}

// Migrate creates required tables if they do not exist
func Migrate() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	createUsers := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(191) NOT NULL UNIQUE,
		password VARCHAR(191) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'paciente',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createUsers); err != nil {
		return err
	}
	_, _ = db.Exec("ALTER TABLE users ADD COLUMN IF NOT EXISTS especialidad VARCHAR(100) DEFAULT ''")
	_, _ = db.Exec("ALTER TABLE users ADD COLUMN IF NOT EXISTS city VARCHAR(100) DEFAULT ''")

	createCitas := `
	CREATE TABLE IF NOT EXISTS citas (
		id INT AUTO_INCREMENT PRIMARY KEY,
		paciente_id INT NOT NULL,
		doctor_id INT NOT NULL,
		fecha_hora DATETIME NOT NULL,
		modalidad VARCHAR(20) NOT NULL DEFAULT 'PRESENCIAL',
		estado VARCHAR(20) NOT NULL DEFAULT 'AGENDADA',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		FOREIGN KEY (paciente_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (doctor_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createCitas); err != nil {
		return err
	}

	createSolicitudes := `
	CREATE TABLE IF NOT EXISTS solicitudes (
		id INT AUTO_INCREMENT PRIMARY KEY,
		nombre VARCHAR(191) NOT NULL,
		email VARCHAR(191) NOT NULL,
		telefono VARCHAR(50) NOT NULL DEFAULT '',
		registro_medico VARCHAR(100) NOT NULL DEFAULT '',
		estado VARCHAR(20) NOT NULL DEFAULT 'PENDIENTE',
		motivo TEXT NULL,
		errores_validacion TEXT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createSolicitudes); err != nil {
		return err
	}
	createDocs := `
	CREATE TABLE IF NOT EXISTS solicitud_documentos (
		id INT AUTO_INCREMENT PRIMARY KEY,
		solicitud_id INT NOT NULL,
		nombre VARCHAR(191) NOT NULL,
		ruta VARCHAR(255) NOT NULL,
		FOREIGN KEY (solicitud_id) REFERENCES solicitudes(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createDocs); err != nil {
		return err
	}

	createPlans := `
	CREATE TABLE IF NOT EXISTS subscription_plans (
		id INT AUTO_INCREMENT PRIMARY KEY,
		codigo VARCHAR(50) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL,
		currency VARCHAR(10) NOT NULL DEFAULT 'USD',
		price DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		billing VARCHAR(50) NOT NULL DEFAULT 'Mensual',
		consultations INT NOT NULL DEFAULT 0,
		beneficios TEXT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createPlans); err != nil {
		return err
	}
	createSubs := `
	CREATE TABLE IF NOT EXISTS subscriptions (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		plan_id INT NOT NULL,
		estado VARCHAR(20) NOT NULL DEFAULT 'ACTIVA',
		start_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		end_date DATETIME NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (plan_id) REFERENCES subscription_plans(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createSubs); err != nil {
		return err
	}

	createProductos := `
	CREATE TABLE IF NOT EXISTS productos (
		id INT AUTO_INCREMENT PRIMARY KEY,
		nombre VARCHAR(191) NOT NULL,
		precio DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		stock INT NOT NULL DEFAULT 0
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createProductos); err != nil {
		return err
	}
	return nil
}

// SeedDefaultUsers inserts a default director and doctor if missing
func SeedDefaultUsers() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	seed := []struct {
		first, last, email, pass, role, esp string
	}{
		{"Dirección", "Médica", "direccion@portalmedico.local", "supersecret", RoleDirector, ""},
		{"Ana", "Beltrán", "ana.beltran@portalmedico.local", "supersecret", RoleDoctor, "Medicina general"},
	}
	for _, s := range seed {
		var count int
		if err := db.QueryRow("SELECT COUNT(1) FROM users WHERE email = ?", s.email).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			if _, err := db.Exec(
				"INSERT INTO users (first_name, last_name, email, password, role, especialidad) VALUES (?, ?, ?, ?, ?, ?)",
				s.first, s.last, s.email, s.pass, s.role, s.esp,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// SeedDefaultPlans inserts the plan catalog if none exist. El catálogo es
// la única fuente de precios: el checkout y la pantalla de planes leen de aquí.
func SeedDefaultPlans() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM subscription_plans").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO subscription_plans (codigo, name, currency, price, billing, consultations, beneficios) VALUES ('gratuito','Gratuito','USD',0.00,'Mensual',1,'Directorio de doctores')`); err != nil {
			return err
		}
		if _, err := db.Exec(`INSERT INTO subscription_plans (codigo, name, currency, price, billing, consultations, beneficios) VALUES ('basico','Básico','USD',9.99,'Mensual',4,'Citas virtuales,Descuentos en farmacia')`); err != nil {
			return err
		}
		if _, err := db.Exec(`INSERT INTO subscription_plans (codigo, name, currency, price, billing, consultations, beneficios) VALUES ('completo','Completo','USD',19.99,'Mensual',12,'Citas ilimitadas,Farmacia a domicilio,Chequeo anual')`); err != nil {
			return err
		}
	}
	return nil
}

// SeedDefaultProductos inserts a few pharmacy products if none exist
func SeedDefaultProductos() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM productos").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO productos (nombre, precio, stock) VALUES ('Acetaminofén 500mg', 3.50, 200), ('Ibuprofeno 400mg', 4.25, 150), ('Vitamina C 1g', 7.99, 80)`); err != nil {
			return err
		}
	}
	return nil
}

// GetUserByEmail retrieves a user from DB by email
func GetUserByEmail(email string) *User {
	if db == nil {
		return nil
	}
	row := db.QueryRow("SELECT id, first_name, last_name, email, password, role, IFNULL(especialidad,''), IFNULL(city,''), created_at, updated_at FROM users WHERE email = ? LIMIT 1", email)
	var u User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Role, &u.Especialidad, &u.City, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil
	}
	return &u
}

// GetUserByID retrieves a user by its ID
func GetUserByID(id int) *User {
	if db == nil {
		return nil
	}
	row := db.QueryRow("SELECT id, first_name, last_name, email, password, role, IFNULL(especialidad,''), IFNULL(city,''), created_at, updated_at FROM users WHERE id = ? LIMIT 1", id)
	var u User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Role, &u.Especialidad, &u.City, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil
	}
	return &u
}

// CreateUser inserts a new user record
func CreateUser(firstName, lastName, email, password, role string) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	_, err := db.Exec(
		"INSERT INTO users (first_name, last_name, email, password, role) VALUES (?, ?, ?, ?, ?)",
		firstName, lastName, email, password, role,
	)
	return err
}

// EmailExists checks if a user with the given email exists
func EmailExists(email string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM users WHERE email = ?", email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateUserPassword updates the password for the given user id
func UpdateUserPassword(id int, password string) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	_, err := db.Exec("UPDATE users SET password = ?, updated_at = NOW() WHERE id = ?", password, id)
	return err
}
