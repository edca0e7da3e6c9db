// Package access answers the one question the save pipeline asks: may
// this user write to this Bible. Roles follow the translation team
// model: readers see everything, translators write to the Bibles they
// were granted, managers write everywhere.
package access

import (
	"database/sql"

	"github.com/davidrees/scriptorium/core/errors"
)

// Role is a user's privilege level.
type Role string

const (
	RoleReader     Role = "reader"
	RoleTranslator Role = "translator"
	RoleManager    Role = "manager"
)

// Control is the SQLite-backed access control collaborator. It shares
// the storage database handle.
type Control struct {
	db *sql.DB
}

// New prepares the access schema on the given database.
func New(db *sql.DB) (*Control, error) {
	c := &Control{db: db}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user TEXT PRIMARY KEY,
			role TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS write_grants (
			user  TEXT NOT NULL,
			bible TEXT NOT NULL,
			PRIMARY KEY (user, bible)
		)`,
	}
	for _, stmt := range schema {
		if _, err := c.db.Exec(stmt); err != nil {
			return nil, errors.NewIO("migrate", "access schema", err)
		}
	}
	return c, nil
}

// SetRole assigns a role to a user, creating the user if needed.
func (c *Control) SetRole(user string, role Role) error {
	_, err := c.db.Exec(
		`INSERT INTO users (user, role) VALUES (?, ?)
		 ON CONFLICT (user) DO UPDATE SET role = excluded.role`,
		user, string(role))
	if err != nil {
		return errors.NewIO("store", "user role", err)
	}
	return nil
}

// Role returns the user's role. Unknown users are readers.
func (c *Control) Role(user string) (Role, error) {
	var role string
	err := c.db.QueryRow(`SELECT role FROM users WHERE user = ?`, user).Scan(&role)
	if err == sql.ErrNoRows {
		return RoleReader, nil
	}
	if err != nil {
		return RoleReader, errors.NewIO("read", "user role", err)
	}
	return Role(role), nil
}

// GrantWrite grants a translator write access to a Bible.
func (c *Control) GrantWrite(user, bible string) error {
	_, err := c.db.Exec(
		`INSERT OR IGNORE INTO write_grants (user, bible) VALUES (?, ?)`,
		user, bible)
	if err != nil {
		return errors.NewIO("store", "write grant", err)
	}
	return nil
}

// RevokeWrite removes a translator's write access to a Bible.
func (c *Control) RevokeWrite(user, bible string) error {
	_, err := c.db.Exec(
		`DELETE FROM write_grants WHERE user = ? AND bible = ?`,
		user, bible)
	if err != nil {
		return errors.NewIO("store", "write grant", err)
	}
	return nil
}

// WriteAccess reports whether the user may write to the Bible.
// Managers always may; translators need a grant; readers never may.
func (c *Control) WriteAccess(user, bible string) (bool, error) {
	role, err := c.Role(user)
	if err != nil {
		return false, err
	}
	switch role {
	case RoleManager:
		return true, nil
	case RoleTranslator:
		var count int
		err := c.db.QueryRow(
			`SELECT COUNT(*) FROM write_grants WHERE user = ? AND bible = ?`,
			user, bible).Scan(&count)
		if err != nil {
			return false, errors.NewIO("read", "write grant", err)
		}
		return count > 0, nil
	default:
		return false, nil
	}
}
