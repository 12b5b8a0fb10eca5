package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const projectColumns = `id, site_name, title, description, release_date, start_date,
	location, tenderer, site_project_id, rate, url, budget, duration, workload,
	requirements_tf, sort_order, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	var tfJSON []byte

	err := row.Scan(&p.ID, &p.SiteName, &p.Title, &p.Description, &p.ReleaseDate,
		&p.StartDate, &p.Location, &p.Tenderer, &p.SiteProjectID, &p.Rate, &p.URL,
		&p.Budget, &p.Duration, &p.Workload, &tfJSON, &p.SortOrder, &p.CreatedAt,
		&p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if tfJSON != nil {
		_ = json.Unmarshal(tfJSON, &p.RequirementsTF)
	}
	if p.RequirementsTF == nil {
		p.RequirementsTF = map[string]int{}
	}
	return &p, nil
}

// InsertProject stores a new project and returns it with its assigned ID.
// A conflicting URL updates the existing row instead.
func (db *DB) InsertProject(ctx context.Context, p *Project) (*Project, error) {
	tfJSON, err := json.Marshal(p.RequirementsTF)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal requirements: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO projects (site_name, title, description, release_date, start_date,
		        location, tenderer, site_project_id, rate, url, budget, duration,
		        workload, requirements_tf, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (url) DO UPDATE SET
		        title = EXCLUDED.title,
		        description = EXCLUDED.description,
		        release_date = EXCLUDED.release_date,
		        start_date = EXCLUDED.start_date,
		        location = EXCLUDED.location,
		        tenderer = EXCLUDED.tenderer,
		        site_project_id = EXCLUDED.site_project_id,
		        rate = EXCLUDED.rate,
		        budget = EXCLUDED.budget,
		        duration = EXCLUDED.duration,
		        workload = EXCLUDED.workload,
		        requirements_tf = EXCLUDED.requirements_tf,
		        updated_at = NOW()
		 RETURNING `+projectColumns,
		p.SiteName, p.Title, p.Description, p.ReleaseDate, p.StartDate, p.Location,
		p.Tenderer, p.SiteProjectID, p.Rate, p.URL, p.Budget, p.Duration, p.Workload,
		tfJSON, p.SortOrder,
	)

	stored, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}
	return stored, nil
}

// GetProjectByID retrieves a project by ID, or nil when absent.
func (db *DB) GetProjectByID(ctx context.Context, id int64) (*Project, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)

	p, err := scanProject(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ExistingURLs returns the set of all stored project URLs. Taken as a
// snapshot before a scan so already-known listings can be skipped without a
// per-card query.
func (db *DB) ExistingURLs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := db.pool.Query(ctx, `SELECT url FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("failed to list project URLs: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		urls[url] = struct{}{}
	}
	return urls, rows.Err()
}

// ListProjects retrieves all projects ordered by sort order.
func (db *DB) ListProjects(ctx context.Context) ([]*Project, error) {
	return db.listProjects(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY sort_order ASC, id ASC`)
}

// ListProjectsByDateDesc retrieves all projects ordered newest release date
// first. Rows with equal or unparseable dates keep insertion order. Date
// ordering on the DD.MM.YYYY strings is done in SQL by reversing the parts.
func (db *DB) ListProjectsByDateDesc(ctx context.Context) ([]*Project, error) {
	return db.listProjects(ctx,
		`SELECT `+projectColumns+` FROM projects
		 ORDER BY substring(release_date, 7, 4) DESC,
		          substring(release_date, 4, 2) DESC,
		          substring(release_date, 1, 2) DESC,
		          id ASC`)
}

func (db *DB) listProjects(ctx context.Context, query string) ([]*Project, error) {
	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ApplyDedup removes the given projects and rewrites the sort order of the
// survivors in a single transaction.
func (db *DB) ApplyDedup(ctx context.Context, removeIDs []int64, sortOrders map[int64]int) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		if len(removeIDs) > 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = ANY($1)`, removeIDs); err != nil {
				return fmt.Errorf("failed to delete duplicates: %w", err)
			}
		}
		for id, order := range sortOrders {
			if _, err := tx.Exec(ctx,
				`UPDATE projects SET sort_order = $1, updated_at = NOW() WHERE id = $2`,
				order, id); err != nil {
				return fmt.Errorf("failed to update sort order: %w", err)
			}
		}
		return nil
	})
}

// CountProjects returns the number of stored projects.
func (db *DB) CountProjects(ctx context.Context) (int, error) {
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}
