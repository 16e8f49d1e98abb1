package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"focusdash/domain"
)

// ErrNotFound is returned when a record does not exist or is owned by a
// different user. Handlers must not distinguish the two cases.
var ErrNotFound = errors.New("record not found")

// healthUserID owns the probe rows written by CheckHealth.
const healthUserID = "health-check-user"

// Storage provides access to the relational store backing all entities.
type Storage struct {
	db *sql.DB
}

// New opens a MySQL-backed Storage from the given DSN. Timestamp parsing is
// forced on regardless of the DSN's own settings because every scan below
// reads DATETIME columns into time.Time.
func New(dsn string) (*Storage, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	cfg.ParseTime = true
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &Storage{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.db.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(191) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		created_at DATETIME(3) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id CHAR(36) PRIMARY KEY,
		title VARCHAR(500) NOT NULL,
		description TEXT,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		priority VARCHAR(10) NOT NULL DEFAULT 'MEDIUM',
		category VARCHAR(255),
		due_date DATETIME(3),
		estimated_time INT,
		user_id VARCHAR(191) NOT NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		INDEX idx_tasks_user_created (user_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id CHAR(36) PRIMARY KEY,
		title VARCHAR(500) NOT NULL,
		content TEXT NOT NULL,
		tags VARCHAR(500),
		user_id VARCHAR(191) NOT NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		INDEX idx_notes_user_created (user_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS focus_sessions (
		id CHAR(36) PRIMARY KEY,
		duration INT NOT NULL,
		type VARCHAR(10) NOT NULL,
		user_id VARCHAR(191) NOT NULL,
		created_at DATETIME(3) NOT NULL,
		INDEX idx_sessions_user_created (user_id, created_at)
	)`,
}

// EnsureSchema creates the four tables when they do not exist yet.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// EnsureUser resolves the caller-supplied identifier to a user row,
// creating one on first sight. The read runs first so repeat calls stay
// pure reads; the create itself is an atomic insert-or-ignore keyed on the
// identifier, so two concurrent first requests cannot both insert.
func (s *Storage) EnsureUser(ctx context.Context, id string) (domain.User, error) {
	u, err := s.getUser(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		"INSERT IGNORE INTO users (id, name, created_at) VALUES (?, ?, ?)",
		id, domain.PlaceholderName(id), now)
	if err != nil {
		return domain.User{}, err
	}
	return s.getUser(ctx, id)
}

func (s *Storage) getUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Name, &u.CreatedAt)
	return u, err
}

const taskColumns = "id, title, description, completed, priority, category, due_date, estimated_time, user_id, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (domain.Task, error) {
	var (
		t           domain.Task
		description sql.NullString
		category    sql.NullString
		dueDate     sql.NullTime
		estimated   sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Title, &description, &t.Completed, &t.Priority,
		&category, &dueDate, &estimated, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	t.Description = description.String
	t.Category = category.String
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if estimated.Valid {
		n := int(estimated.Int64)
		t.EstimatedTime = &n
	}
	return t, nil
}

// ListTasks returns all tasks owned by userID, most recent first.
func (s *Storage) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask persists a new task and fills in its generated fields.
func (s *Storage) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	t.ID = uuid.NewString()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.Title, nullString(t.Description), t.Completed, t.Priority,
		nullString(t.Category), nullTime(t.DueDate), nullInt(t.EstimatedTime),
		t.UserID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// GetTask fetches a single task scoped to its owner.
func (s *Storage) GetTask(ctx context.Context, userID, id string) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?", id, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, ErrNotFound
	}
	return t, err
}

// UpdateTask replaces every mutable field of a task after verifying
// ownership. A missing or foreign row yields ErrNotFound and no write.
func (s *Storage) UpdateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	existing, err := s.GetTask(ctx, t.UserID, t.ID)
	if err != nil {
		return domain.Task{}, err
	}

	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, completed = ?, priority = ?,
			category = ?, due_date = ?, estimated_time = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.Title, nullString(t.Description), t.Completed, t.Priority,
		nullString(t.Category), nullTime(t.DueDate), nullInt(t.EstimatedTime),
		t.UpdatedAt, t.ID, t.UserID)
	if err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// DeleteTask removes a task scoped to its owner.
func (s *Storage) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const noteColumns = "id, title, content, tags, user_id, created_at, updated_at"

func scanNote(row interface{ Scan(...any) error }) (domain.Note, error) {
	var (
		n    domain.Note
		tags sql.NullString
	)
	err := row.Scan(&n.ID, &n.Title, &n.Content, &tags, &n.UserID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return domain.Note{}, err
	}
	n.Tags = tags.String
	return n, nil
}

// ListNotes returns all notes owned by userID, most recent first.
func (s *Storage) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []domain.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// CreateNote persists a new note.
func (s *Storage) CreateNote(ctx context.Context, n domain.Note) (domain.Note, error) {
	n.ID = uuid.NewString()
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notes ("+noteColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		n.ID, n.Title, n.Content, nullString(n.Tags), n.UserID, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return domain.Note{}, err
	}
	return n, nil
}

// DeleteNote removes a note scoped to its owner.
func (s *Storage) DeleteNote(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM notes WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const sessionColumns = "id, duration, type, user_id, created_at"

// ListSessions returns all focus sessions owned by userID, most recent
// first.
func (s *Storage) ListSessions(ctx context.Context, userID string) ([]domain.FocusSession, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM focus_sessions WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

// ListSessionsBetween returns sessions created in the half-open window
// [from, to), most recent first. The stats snapshot uses it for the current
// calendar day.
func (s *Storage) ListSessionsBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.FocusSession, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM focus_sessions WHERE user_id = ? AND created_at >= ? AND created_at < ? ORDER BY created_at DESC",
		userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func collectSessions(rows *sql.Rows) ([]domain.FocusSession, error) {
	sessions := []domain.FocusSession{}
	for rows.Next() {
		var fs domain.FocusSession
		if err := rows.Scan(&fs.ID, &fs.Duration, &fs.Type, &fs.UserID, &fs.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, fs)
	}
	return sessions, rows.Err()
}

// CreateSession appends a completed timer interval.
func (s *Storage) CreateSession(ctx context.Context, fs domain.FocusSession) (domain.FocusSession, error) {
	fs.ID = uuid.NewString()
	fs.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO focus_sessions ("+sessionColumns+") VALUES (?, ?, ?, ?, ?)",
		fs.ID, fs.Duration, fs.Type, fs.UserID, fs.CreatedAt)
	if err != nil {
		return domain.FocusSession{}, err
	}
	return fs, nil
}

// CheckHealth counts users and exercises a create-then-delete round trip of
// probe tasks, once without and once with an estimated time. The steps are
// not atomic with each other.
func (s *Storage) CheckHealth(ctx context.Context) (int, error) {
	var userCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&userCount); err != nil {
		return 0, err
	}
	if _, err := s.EnsureUser(ctx, healthUserID); err != nil {
		return 0, err
	}

	probe := domain.Task{Title: "health probe", Priority: domain.PriorityMedium, UserID: healthUserID}
	created, err := s.CreateTask(ctx, probe)
	if err != nil {
		return 0, err
	}
	if err := s.DeleteTask(ctx, healthUserID, created.ID); err != nil {
		return 0, err
	}

	estimate := 30
	probe.EstimatedTime = &estimate
	created, err = s.CreateTask(ctx, probe)
	if err != nil {
		return 0, err
	}
	if err := s.DeleteTask(ctx, healthUserID, created.ID); err != nil {
		return 0, err
	}
	return userCount, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
