// Package sqlite provides the SQLite-backed ContentStore.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bulochat/bulochat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/bulochat/bulochat/internal/core/domain"
	"github.com/bulochat/bulochat/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ContentStore = (*Store)(nil)

// Store is the SQLite-backed content store. It persists documents,
// chunks, the answer cache and the business profile in one database file.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.bulochat/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".bulochat", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "bulochat.db")

	// WAL mode for better concurrency between the ingest run and readers.
	// Pragmas ride the DSN: foreign_keys and busy_timeout are
	// per-connection, and the pool opens connections on demand.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Reset drops all application tables and re-runs migrations.
func (s *Store) Reset() error {
	for _, table := range []string{"qa_cache", "chunks", "documents", "business_profile", "schema_migrations"} {
		if _, err := s.db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("dropping %s: %w", table, err)
		}
	}
	return s.migrate(migrations.FS)
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Documents ====================

// GetDocumentByURL retrieves a document by source URL.
func (s *Store) GetDocumentByURL(ctx context.Context, sourceURL string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_url, title, content_hash, created_at, updated_at
		FROM documents WHERE source_url = ?
	`, sourceURL)

	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.SourceURL, &doc.Title, &doc.ContentHash,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return &doc, nil
}

// ReplaceDocument deletes any prior document for doc.SourceURL (cascading
// to its chunks) and inserts the new document with its chunks in a single
// transaction. Readers see either the fully-old or fully-new state.
func (s *Store) ReplaceDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Chunks are deleted explicitly. The foreign key cascade also covers
	// them, but it hinges on a per-connection pragma; a replacement must
	// never leave stale chunks behind.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM chunks WHERE document_id IN (
			SELECT id FROM documents WHERE source_url = ?
		)`, doc.SourceURL); err != nil {
		return fmt.Errorf("deleting previous chunks: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE source_url = ?`, doc.SourceURL); err != nil {
		return fmt.Errorf("deleting previous document: %w", err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, source_url, title, content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.SourceURL, doc.Title, doc.ContentHash, doc.CreatedAt, doc.UpdatedAt); err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}

	if len(chunks) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (id, document_id, text, position, embedding)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing chunk insert: %w", err)
		}
		defer stmt.Close()

		for _, chunk := range chunks {
			if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Text,
				chunk.Position, float32SliceToBytes(chunk.Embedding)); err != nil {
				return fmt.Errorf("inserting chunk: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteDocument removes a document; the foreign key cascades to chunks.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDocuments returns all documents ordered by source URL.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_url, title, content_hash, created_at, updated_at
		FROM documents ORDER BY source_url
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.SourceURL, &doc.Title, &doc.ContentHash,
			&doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListChunks returns every stored chunk in (document, position) order.
func (s *Store) ListChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, text, position, embedding
		FROM chunks ORDER BY document_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text,
			&chunk.Position, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// ==================== Answer cache ====================

// GetCachedAnswer retrieves a cached answer by question hash.
func (s *Store) GetCachedAnswer(ctx context.Context, questionHash string) (*domain.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT question_hash, answer, created_at FROM qa_cache WHERE question_hash = ?
	`, questionHash)

	var entry domain.CacheEntry
	if err := row.Scan(&entry.QuestionHash, &entry.Answer, &entry.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting cached answer: %w", err)
	}
	return &entry, nil
}

// SaveCachedAnswer stores an answer under a question hash. The INSERT OR
// IGNORE keeps the first writer's answer; later writers get
// domain.ErrAlreadyCached.
func (s *Store) SaveCachedAnswer(ctx context.Context, questionHash, answer string) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO qa_cache (question_hash, answer, created_at)
		VALUES (?, ?, ?)
	`, questionHash, answer, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("caching answer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking cache insert: %w", err)
	}
	if affected == 0 {
		return domain.ErrAlreadyCached
	}
	return nil
}

// ==================== Business profile ====================

// GetProfile retrieves the singleton business profile.
func (s *Store) GetProfile(ctx context.Context) (*domain.BusinessProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, source_url, personality, faqs, marketing_info, updated_at
		FROM business_profile WHERE id = 1
	`)

	var profile domain.BusinessProfile
	var faqsJSON string
	if err := row.Scan(&profile.Name, &profile.SourceURL, &profile.Personality,
		&faqsJSON, &profile.MarketingInfo, &profile.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}

	if err := json.Unmarshal([]byte(faqsJSON), &profile.FAQs); err != nil {
		return nil, fmt.Errorf("decoding FAQs: %w", err)
	}
	return &profile, nil
}

// SaveProfile creates or replaces the singleton business profile.
func (s *Store) SaveProfile(ctx context.Context, profile *domain.BusinessProfile) error {
	faqs := profile.FAQs
	if faqs == nil {
		faqs = []domain.FAQ{}
	}
	faqsJSON, err := json.Marshal(faqs)
	if err != nil {
		return fmt.Errorf("encoding FAQs: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO business_profile (id, name, source_url, personality, faqs, marketing_info, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			source_url = excluded.source_url,
			personality = excluded.personality,
			faqs = excluded.faqs,
			marketing_info = excluded.marketing_info,
			updated_at = excluded.updated_at
	`, profile.Name, profile.SourceURL, profile.Personality, string(faqsJSON),
		profile.MarketingInfo, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// ==================== Embedding serialisation ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
