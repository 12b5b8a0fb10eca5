package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetSkillIDFs returns the inverse document frequency of every known skill.
func (db *DB) GetSkillIDFs(ctx context.Context) (map[string]float64, error) {
	rows, err := db.pool.Query(ctx, `SELECT name, idf FROM skills`)
	if err != nil {
		return nil, fmt.Errorf("failed to list skill IDFs: %w", err)
	}
	defer rows.Close()

	idfs := make(map[string]float64)
	for rows.Next() {
		var name string
		var idf float64
		if err := rows.Scan(&name, &idf); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		idfs[name] = idf
	}
	return idfs, rows.Err()
}

// UpsertSkillIDFs writes the given IDF values in one transaction. Skills not
// present in idfs keep their stored value; a rebuild only ever touches the
// skills that occur in the current project corpus.
func (db *DB) UpsertSkillIDFs(ctx context.Context, idfs map[string]float64) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		for name, idf := range idfs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO skills (name, idf)
				 VALUES ($1, $2)
				 ON CONFLICT (name) DO UPDATE SET idf = $2, updated_at = NOW()`,
				name, idf); err != nil {
				return fmt.Errorf("failed to upsert skill %s: %w", name, err)
			}
		}
		return nil
	})
}

// GetSkillEmbedding returns the cached embedding vector for a skill name.
// The second return value is false when no vector is cached.
func (db *DB) GetSkillEmbedding(ctx context.Context, name string) ([]float64, bool, error) {
	var embJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT embedding FROM skills WHERE name = $1`, name).Scan(&embJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get skill embedding: %w", err)
	}
	if embJSON == nil {
		return nil, false, nil
	}

	var embedding []float64
	if err := json.Unmarshal(embJSON, &embedding); err != nil {
		return nil, false, fmt.Errorf("failed to decode skill embedding: %w", err)
	}
	return embedding, len(embedding) > 0, nil
}

// SaveSkillEmbedding caches an embedding vector for a skill name, creating
// the skill row if needed.
func (db *DB) SaveSkillEmbedding(ctx context.Context, name string, embedding []float64) error {
	embJSON, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO skills (name, idf, embedding)
		 VALUES ($1, 0, $2)
		 ON CONFLICT (name) DO UPDATE SET embedding = $2, updated_at = NOW()`,
		name, embJSON)
	if err != nil {
		return fmt.Errorf("failed to save skill embedding: %w", err)
	}
	return nil
}
