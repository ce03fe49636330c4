package store

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"mpdhub/internal/crypto"
)

type Store struct {
	db     *sql.DB
	sealer *crypto.Sealer
}

type Option func(*Store)

// WithSealer encrypts entry passwords at rest.
func WithSealer(s *crypto.Sealer) Option {
	return func(st *Store) { st.sealer = s }
}

func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, err
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// HasSealer reports whether passwords are encrypted at rest.
func (s *Store) HasSealer() bool {
	return s.sealer != nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping() error {
	return s.db.Ping()
}
