package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlitevec.Auto()
}

// SQLiteVecStore is the embedded vector-store backend: one database file
// holding a pair of tables per project (a vec0 virtual table for the
// embedding and a plain table for chunk metadata), adapted from
// internal/storage/vector_index.go's CreateVectorIndex/UpdateVectorIndex/
// QueryVectorSimilarity. It is used for tests and for single-binary
// deployments that don't run a Qdrant instance.
type SQLiteVecStore struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLiteVecStore opens (creating if needed) the embedded vector
// database at path.
func OpenSQLiteVecStore(path string) (*SQLiteVecStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return &SQLiteVecStore{db: db}, nil
}

func vecTable(projectID string) string  { return "vec_" + projectID }
func metaTable(projectID string) string { return "meta_" + projectID }

func (s *SQLiteVecStore) EnsureCollection(ctx context.Context, projectID string, dimensions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ddl := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
		chunk_id TEXT PRIMARY KEY,
		embedding float[%d]
	)`, vecTable(projectID), dimensions)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("vectorstore: create vec table: %w", err)
	}

	metaDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		chunk_id   TEXT PRIMARY KEY,
		file_path  TEXT NOT NULL,
		text       TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line   INTEGER NOT NULL
	)`, metaTable(projectID))
	if _, err := s.db.ExecContext(ctx, metaDDL); err != nil {
		return fmt.Errorf("vectorstore: create meta table: %w", err)
	}
	return nil
}

func (s *SQLiteVecStore) Upsert(ctx context.Context, projectID string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vectorstore: begin: %w", err)
	}
	defer tx.Rollback()

	deleteVec, err := tx.Prepare(fmt.Sprintf("DELETE FROM %s WHERE chunk_id = ?", vecTable(projectID)))
	if err != nil {
		return fmt.Errorf("vectorstore: prepare vec delete: %w", err)
	}
	defer deleteVec.Close()

	insertVec, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (chunk_id, embedding) VALUES (?, ?)", vecTable(projectID)))
	if err != nil {
		return fmt.Errorf("vectorstore: prepare vec insert: %w", err)
	}
	defer insertVec.Close()

	upsertMeta, err := tx.Prepare(fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (chunk_id, file_path, text, start_line, end_line) VALUES (?, ?, ?, ?, ?)",
		metaTable(projectID)))
	if err != nil {
		return fmt.Errorf("vectorstore: prepare meta upsert: %w", err)
	}
	defer upsertMeta.Close()

	for _, r := range records {
		if _, err := deleteVec.Exec(r.ChunkID); err != nil {
			return fmt.Errorf("vectorstore: delete vec %s: %w", r.ChunkID, err)
		}
		embBytes, err := sqlitevec.SerializeFloat32(r.Embedding)
		if err != nil {
			return fmt.Errorf("vectorstore: serialize embedding %s: %w", r.ChunkID, err)
		}
		if _, err := insertVec.Exec(r.ChunkID, embBytes); err != nil {
			return fmt.Errorf("vectorstore: insert vec %s: %w", r.ChunkID, err)
		}
		if _, err := upsertMeta.Exec(r.ChunkID, r.FilePath, r.Text, r.StartLine, r.EndLine); err != nil {
			return fmt.Errorf("vectorstore: upsert meta %s: %w", r.ChunkID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteVecStore) DeleteFile(ctx context.Context, projectID, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT chunk_id FROM %s WHERE file_path = ?", metaTable(projectID)), filePath)
	if err != nil {
		return fmt.Errorf("vectorstore: list chunks for %s: %w", filePath, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("vectorstore: scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vectorstore: begin: %w", err)
	}
	defer tx.Rollback()

	deleteVec, err := tx.Prepare(fmt.Sprintf("DELETE FROM %s WHERE chunk_id = ?", vecTable(projectID)))
	if err != nil {
		return err
	}
	defer deleteVec.Close()
	deleteMeta, err := tx.Prepare(fmt.Sprintf("DELETE FROM %s WHERE chunk_id = ?", metaTable(projectID)))
	if err != nil {
		return err
	}
	defer deleteMeta.Close()

	for _, id := range ids {
		if _, err := deleteVec.Exec(id); err != nil {
			return fmt.Errorf("vectorstore: delete vec %s: %w", id, err)
		}
		if _, err := deleteMeta.Exec(id); err != nil {
			return fmt.Errorf("vectorstore: delete meta %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteVecStore) Search(ctx context.Context, projectID string, query []float32, limit int) ([]Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queryBytes, err := sqlitevec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: serialize query: %w", err)
	}

	sql := fmt.Sprintf(`
		SELECT v.chunk_id, v.distance, m.file_path, m.text, m.start_line, m.end_line
		FROM (
			SELECT chunk_id, vec_distance_cosine(embedding, ?) AS distance
			FROM %s
			ORDER BY distance
			LIMIT ?
		) v
		JOIN %s m ON m.chunk_id = v.chunk_id
		ORDER BY v.distance
	`, vecTable(projectID), metaTable(projectID))

	rows, err := s.db.QueryContext(ctx, sql, queryBytes, limit)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ChunkID, &m.Distance, &m.FilePath, &m.Text, &m.StartLine, &m.EndLine); err != nil {
			return nil, fmt.Errorf("vectorstore: scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteVecStore) DropCollection(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", vecTable(projectID))); err != nil {
		return fmt.Errorf("vectorstore: drop vec table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metaTable(projectID))); err != nil {
		return fmt.Errorf("vectorstore: drop meta table: %w", err)
	}
	return nil
}

func (s *SQLiteVecStore) Close() error {
	return s.db.Close()
}
