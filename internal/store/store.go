package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// rebind rewrites ? placeholders to $n for Postgres.
func (d dialect) rebind(query string) string {
	if d != dialectPostgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

type Store struct {
	db      *sql.DB
	dialect dialect
}

// New opens a SQLite database at dbPath.
func New(dbPath string) (*Store, error) {
	return Open(DriverSQLite, dbPath)
}

// Open connects with the given driver. For SQLite dsn is a file path or
// ":memory:"; for pgx it is a Postgres connection string.
func Open(driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		d   dialect
		err error
	)
	switch driver {
	case DriverSQLite, "":
		d = dialectSQLite
		db, err = sql.Open(DriverSQLite, sqliteDSN(dsn))
		if err == nil && strings.HasPrefix(dsn, ":memory:") {
			// Every connection would get its own empty in-memory database.
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		d = dialectPostgres
		db, err = sql.Open(DriverPostgres, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, dialect: d}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// sqliteDSN enables foreign keys and takes the write lock when a transaction
// begins, so grading reads and writes see one snapshot.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) q(query string) string {
	return s.dialect.rebind(query)
}

func (s *Store) migrate() error {
	schema := sqliteSchema
	if s.dialect == dialectPostgres {
		schema = postgresSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		start_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		shuffle_questions BOOLEAN NOT NULL DEFAULT FALSE,
		shuffle_options BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id INTEGER NOT NULL,
		tipe_soal TEXT NOT NULL,
		text TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (exam_id) REFERENCES exams(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS options (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id INTEGER NOT NULL,
		text TEXT NOT NULL,
		is_correct BOOLEAN NOT NULL DEFAULT FALSE,
		FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_options_question ON options(question_id, is_correct);

	CREATE TABLE IF NOT EXISTS peserta (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL,
		access_code_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		UNIQUE (exam_id, email),
		FOREIGN KEY (exam_id) REFERENCES exams(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS hasil (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		submission_id TEXT NOT NULL,
		peserta_id INTEGER NOT NULL,
		exam_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		jawaban_text TEXT,
		benar BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (peserta_id) REFERENCES peserta(id),
		FOREIGN KEY (exam_id) REFERENCES exams(id),
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_hasil_exam_peserta ON hasil(exam_id, peserta_id);

	CREATE TABLE IF NOT EXISTS essay_reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hasil_id INTEGER NOT NULL UNIQUE,
		score REAL NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (hasil_id) REFERENCES hasil(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'admin',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		sha256 TEXT NOT NULL,
		exam_id INTEGER NOT NULL DEFAULT 0
	)
`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS exams (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		start_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		shuffle_questions BOOLEAN NOT NULL DEFAULT FALSE,
		shuffle_options BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id BIGSERIAL PRIMARY KEY,
		exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
		tipe_soal TEXT NOT NULL,
		text TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS options (
		id BIGSERIAL PRIMARY KEY,
		question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		is_correct BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_options_question ON options(question_id, is_correct);

	CREATE TABLE IF NOT EXISTS peserta (
		id BIGSERIAL PRIMARY KEY,
		exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL,
		access_code_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (exam_id, email)
	);

	CREATE TABLE IF NOT EXISTS hasil (
		id BIGSERIAL PRIMARY KEY,
		submission_id TEXT NOT NULL,
		peserta_id BIGINT NOT NULL REFERENCES peserta(id),
		exam_id BIGINT NOT NULL REFERENCES exams(id),
		question_id BIGINT NOT NULL REFERENCES questions(id),
		jawaban_text TEXT,
		benar BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_hasil_exam_peserta ON hasil(exam_id, peserta_id);

	CREATE TABLE IF NOT EXISTS essay_reviews (
		id BIGSERIAL PRIMARY KEY,
		hasil_id BIGINT NOT NULL UNIQUE REFERENCES hasil(id) ON DELETE CASCADE,
		score DOUBLE PRECISION NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'admin',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		sha256 TEXT NOT NULL,
		exam_id BIGINT NOT NULL DEFAULT 0
	)
`
