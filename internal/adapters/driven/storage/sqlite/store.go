// Package sqlite provides a SQLite-backed implementation of the
// storage ports. A single database file holds documents, segments,
// summaries and the query cache; similarity search runs as an
// in-process scan over stored segment embeddings.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.paperstack/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".paperstack", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "paperstack.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

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

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// SummaryStore returns a SummaryStore interface backed by this store.
func (s *Store) SummaryStore() driven.SummaryStore {
	return &summaryStore{store: s}
}

// QueryCacheStore returns a QueryCacheStore interface backed by this store.
func (s *Store) QueryCacheStore() driven.QueryCacheStore {
	return &queryCacheStore{store: s}
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
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
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

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// InsertDocument stores a new document. A fingerprint collision maps to
// domain.ErrAlreadyExists so callers can re-read the winning row.
func (s *documentStore) InsertDocument(ctx context.Context, doc *domain.Document) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, fingerprint, title, filename, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, doc.ID, doc.Fingerprint, doc.Title, doc.Filename, doc.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, fingerprint, title, filename, created_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocumentRow(row)
}

// GetDocumentByFingerprint retrieves a document by content fingerprint.
func (s *documentStore) GetDocumentByFingerprint(ctx context.Context, fingerprint string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, fingerprint, title, filename, created_at
		FROM documents WHERE fingerprint = ?
	`, fingerprint)
	return scanDocumentRow(row)
}

// ListDocuments returns all documents, newest first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, fingerprint, title, filename, created_at
		FROM documents
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Fingerprint, &doc.Title, &doc.Filename, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// DeleteDocument removes a document. Segments and summaries cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// InsertSegments bulk-inserts the segments of one document atomically.
func (s *documentStore) InsertSegments(ctx context.Context, segments []domain.Segment) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segments (id, document_id, ordinal, content, token_count, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, seg := range segments {
		embeddingBlob := float32SliceToBytes(seg.Embedding)
		if _, err := stmt.ExecContext(ctx, seg.ID, seg.DocumentID, seg.Ordinal,
			seg.Content, seg.TokenCount, embeddingBlob); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyExists
			}
			return fmt.Errorf("inserting segment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetSegments returns a document's segments in ordinal order.
func (s *documentStore) GetSegments(ctx context.Context, documentID string) ([]domain.Segment, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, ordinal, content, token_count, embedding
		FROM segments WHERE document_id = ?
		ORDER BY ordinal
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	return scanSegments(rows)
}

// SearchSimilar scans all stored segment embeddings and returns the
// topK by cosine similarity. Segments whose embedding dimensionality
// differs from the query vector are skipped.
func (s *documentStore) SearchSimilar(ctx context.Context, vector []float32, topK int, documentID string) ([]domain.Match, error) {
	query := `
		SELECT s.id, s.document_id, s.ordinal, s.content, s.token_count, s.embedding, d.title
		FROM segments s
		JOIN documents d ON d.id = s.document_id
	`
	var args []any
	if documentID != "" {
		query += " WHERE s.document_id = ?"
		args = append(args, documentID)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var seg domain.Segment
		var embeddingBlob []byte
		var title string
		if err := rows.Scan(&seg.ID, &seg.DocumentID, &seg.Ordinal,
			&seg.Content, &seg.TokenCount, &embeddingBlob, &title); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		seg.Embedding = bytesToFloat32Slice(embeddingBlob)
		if len(seg.Embedding) != len(vector) {
			continue
		}
		matches = append(matches, domain.Match{
			Segment:       seg,
			DocumentTitle: title,
			Score:         cosineSimilarity(vector, seg.Embedding),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating segments: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Segment.DocumentID != matches[j].Segment.DocumentID {
			return matches[i].Segment.DocumentID < matches[j].Segment.DocumentID
		}
		return matches[i].Segment.Ordinal < matches[j].Segment.Ordinal
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// ==================== Summary Store ====================

// summaryStore implements driven.SummaryStore.
type summaryStore struct {
	store *Store
}

var _ driven.SummaryStore = (*summaryStore)(nil)

// InsertSummary stores a new summary. A (document, kind) collision maps
// to domain.ErrAlreadyExists.
func (s *summaryStore) InsertSummary(ctx context.Context, summary *domain.Summary) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO summaries (id, document_id, kind, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, summary.ID, summary.DocumentID, string(summary.Kind), summary.Content, summary.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("inserting summary: %w", err)
	}
	return nil
}

// GetSummary retrieves the summary for (document, kind).
func (s *summaryStore) GetSummary(ctx context.Context, documentID string, kind domain.SummaryKind) (*domain.Summary, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, kind, content, created_at
		FROM summaries WHERE document_id = ? AND kind = ?
	`, documentID, string(kind))

	var summary domain.Summary
	var kindStr string
	if err := row.Scan(&summary.ID, &summary.DocumentID, &kindStr, &summary.Content, &summary.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning summary: %w", err)
	}
	summary.Kind = domain.SummaryKind(kindStr)

	return &summary, nil
}

// ==================== Query Cache Store ====================

// queryCacheStore implements driven.QueryCacheStore.
type queryCacheStore struct {
	store *Store
}

var _ driven.QueryCacheStore = (*queryCacheStore)(nil)

// InsertEntry stores a new cache entry. A key collision maps to
// domain.ErrAlreadyExists.
func (s *queryCacheStore) InsertEntry(ctx context.Context, entry *domain.QueryCacheEntry) error {
	citationsJSON, err := json.Marshal(entry.Citations)
	if err != nil {
		return fmt.Errorf("marshalling citations: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO query_cache (id, key, question, embedding, answer, confidence, citations, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Key, entry.Question, float32SliceToBytes(entry.Embedding),
		entry.Answer, string(entry.Confidence), string(citationsJSON), entry.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("inserting cache entry: %w", err)
	}
	return nil
}

// GetEntry retrieves the entry for a normalized key.
func (s *queryCacheStore) GetEntry(ctx context.Context, key string) (*domain.QueryCacheEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, key, question, embedding, answer, confidence, citations, created_at
		FROM query_cache WHERE key = ?
	`, key)

	var entry domain.QueryCacheEntry
	var embeddingBlob []byte
	var confidence, citationsJSON string
	if err := row.Scan(&entry.ID, &entry.Key, &entry.Question, &embeddingBlob,
		&entry.Answer, &confidence, &citationsJSON, &entry.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cache entry: %w", err)
	}
	entry.Embedding = bytesToFloat32Slice(embeddingBlob)
	entry.Confidence = domain.Confidence(confidence)

	if err := json.Unmarshal([]byte(citationsJSON), &entry.Citations); err != nil {
		return nil, fmt.Errorf("unmarshaling citations: %w", err)
	}

	return &entry, nil
}

// ==================== Helper Functions ====================

// isUniqueViolation reports whether err is a SQLite unique or primary
// key constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}

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

// cosineSimilarity computes the cosine similarity of two equal-length
// vectors. Zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// scanDocumentRow scans a single document row.
func scanDocumentRow(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.Fingerprint, &doc.Title, &doc.Filename, &doc.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// scanSegments scans multiple segment rows.
func scanSegments(rows *sql.Rows) ([]domain.Segment, error) {
	var segments []domain.Segment //nolint:prealloc // size unknown from query
	for rows.Next() {
		var seg domain.Segment
		var embeddingBlob []byte
		if err := rows.Scan(&seg.ID, &seg.DocumentID, &seg.Ordinal,
			&seg.Content, &seg.TokenCount, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		seg.Embedding = bytesToFloat32Slice(embeddingBlob)
		segments = append(segments, seg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating segments: %w", err)
	}

	return segments, nil
}
