package store

import (
	"database/sql"
	"errors"
	"fmt"

	"mpdhub/internal/models"
)

const entryColumns = `id, domain, title, host, port, name, password, password_sealed, source, created_at`

func (s *Store) scanEntry(scanner interface{ Scan(...any) error }) (models.Entry, error) {
	var (
		e        models.Entry
		password sql.NullString
		sealed   bool
	)
	err := scanner.Scan(&e.ID, &e.Domain, &e.Title, &e.Data.Host, &e.Data.Port, &e.Data.Name, &password, &sealed, &e.Source, &e.CreatedAt)
	if err != nil {
		return e, err
	}
	if password.Valid {
		pw, err := s.openSecret(password.String, sealed)
		if err != nil {
			return e, fmt.Errorf("entry %s password: %w", e.ID, err)
		}
		e.Data.Password = &pw
	}
	return e, nil
}

// sealSecret returns the column value for v and whether it was encrypted.
func (s *Store) sealSecret(v *string) (sql.NullString, bool, error) {
	if v == nil {
		return sql.NullString{}, false, nil
	}
	if s.sealer == nil {
		return sql.NullString{String: *v, Valid: true}, false, nil
	}
	sealed, err := s.sealer.Seal(*v)
	if err != nil {
		return sql.NullString{}, false, err
	}
	return sql.NullString{String: sealed, Valid: true}, true, nil
}

func (s *Store) openSecret(v string, sealed bool) (string, error) {
	if !sealed {
		return v, nil
	}
	if s.sealer == nil {
		return "", errors.New("value is encrypted but no secret key is configured")
	}
	return s.sealer.Open(v)
}

// CreateEntry inserts e and refreshes it with the stored row. The row is
// only committed once it has been read back.
func (s *Store) CreateEntry(e *models.Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("creating entry: %w", err)
	}
	password, sealed, err := s.sealSecret(e.Data.Password)
	if err != nil {
		return fmt.Errorf("sealing password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := s.scanEntry(tx.QueryRow(
		`INSERT INTO entries (id, domain, title, host, port, name, password, password_sealed, source) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING `+entryColumns,
		e.ID, e.Domain, e.Title, e.Data.Host, e.Data.Port, e.Data.Name, password, sealed, e.Source,
	))
	if err != nil {
		return fmt.Errorf("creating entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing entry: %w", err)
	}
	*e = created
	return nil
}

func (s *Store) GetEntry(id string) (*models.Entry, error) {
	e, err := s.scanEntry(s.db.QueryRow(
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting entry: %w", err)
	}
	return &e, nil
}

func (s *Store) ListEntries() ([]models.Entry, error) {
	rows, err := s.db.Query(`SELECT ` + entryColumns + ` FROM entries ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		e, err := s.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) DeleteEntry(id string) error {
	result, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entry %s: %w", id, models.ErrNotFound)
	}
	return nil
}
