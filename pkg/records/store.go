package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"imushare/pkg/models"

	_ "modernc.org/sqlite"
)

// Repository is the record store the HTTP handlers depend on.
type Repository interface {
	// Create inserts a new record. The id must already be set.
	Create(ctx context.Context, record *models.FileRecord) error

	// Get loads a record by id.
	Get(ctx context.Context, id string) (*models.FileRecord, error)

	// Exists reports whether a record with the id is present.
	Exists(ctx context.Context, id string) (bool, error)

	// Notify records sender and receiver and marks the record notified.
	// With once set, it fails with ErrAlreadyNotified when the record was notified before.
	Notify(ctx context.Context, id, sender, receiver string, once bool) (*models.FileRecord, error)

	// ReleaseNotification undoes the notified transition of a send that failed.
	ReleaseNotification(ctx context.Context, id string) error

	// Close releases the underlying database.
	Close() error
}

// Store manages file records in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a new record store with the given database path.
func NewStore(dbPath string) (*Store, error) {
	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrDatabaseError, err)
	}

	ctx := context.Background()

	// Enable WAL mode for better concurrency
	if _, err := database.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("%w: failed to enable WAL mode: %w", ErrDatabaseError, err)
	}

	store := &Store{db: database}
	if err := store.Initialize(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}

	return store, nil
}

// Initialize creates the database schema.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("%w: failed to initialize schema: %w", ErrDatabaseError, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new record.
func (s *Store) Create(ctx context.Context, record *models.FileRecord) error {
	if record == nil || record.ID == "" || record.StoredName == "" {
		return ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.StoredName, record.StoragePath, record.OriginalName, record.SizeBytes,
		record.Sender, record.Receiver, record.Notified, record.NotifyCount, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrRecordExists
		}
		return fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	record.CreatedAt = now
	record.UpdatedAt = now
	return nil
}

// Get retrieves a record by id.
func (s *Store) Get(ctx context.Context, id string) (*models.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.get(ctx, id)
}

func (s *Store) get(ctx context.Context, id string) (*models.FileRecord, error) {
	record := &models.FileRecord{}
	err := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM files WHERE id = ?`, id,
	).Scan(&record.ID, &record.StoredName, &record.StoragePath, &record.OriginalName, &record.SizeBytes,
		&record.Sender, &record.Receiver, &record.Notified, &record.NotifyCount, &record.CreatedAt, &record.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	return record, nil
}

// Exists reports whether a record with the id is present.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.exists(ctx, id)
}

func (s *Store) exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE id = ?`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}
	return count > 0, nil
}

// Notify sets sender and receiver and moves the record to notified in one statement.
func (s *Store) Notify(ctx context.Context, id, sender, receiver string, once bool) (*models.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `UPDATE files SET sender = ?, receiver = ?, notified = 1, notify_count = notify_count + 1, updated_at = ? WHERE id = ?`
	if once {
		query += ` AND notified = 0`
	}

	result, err := s.db.ExecContext(ctx, query, sender, receiver, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	if affected == 0 {
		found, err := s.exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrRecordNotFound
		}
		return nil, ErrAlreadyNotified
	}

	return s.get(ctx, id)
}

// ReleaseNotification takes back one notification; the record stays notified while earlier sends remain.
func (s *Store) ReleaseNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		`UPDATE files SET
		    notify_count = MAX(notify_count - 1, 0),
		    notified = CASE WHEN notify_count > 1 THEN 1 ELSE 0 END,
		    updated_at = ?
		 WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
