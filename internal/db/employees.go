package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const employeeColumns = `id, name, skills, experience_years, created_at, updated_at`

// dedupSkills trims each skill and drops case-insensitive duplicates, keeping
// the first occurrence and its original casing.
func dedupSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	var skillsJSON []byte

	if err := row.Scan(&e.ID, &e.Name, &skillsJSON, &e.ExperienceYears, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if skillsJSON != nil {
		_ = json.Unmarshal(skillsJSON, &e.Skills)
	}
	if e.Skills == nil {
		e.Skills = []string{}
	}
	return &e, nil
}

// CreateEmployee stores a new employee profile.
func (db *DB) CreateEmployee(ctx context.Context, input *EmployeeInput) (*Employee, error) {
	skillsJSON, err := json.Marshal(dedupSkills(input.Skills))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal skills: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO employees (name, skills, experience_years) VALUES ($1, $2, $3) RETURNING `+employeeColumns,
		input.Name, skillsJSON, input.ExperienceYears)

	e, err := scanEmployee(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	return e, nil
}

// GetEmployeeByID retrieves an employee by ID, or nil when absent.
func (db *DB) GetEmployeeByID(ctx context.Context, id int64) (*Employee, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)

	e, err := scanEmployee(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// ListEmployees retrieves all employees ordered by name.
func (db *DB) ListEmployees(ctx context.Context) ([]*Employee, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []*Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// UpdateEmployee replaces an employee's name, skill list and experience.
// Returns nil when the employee does not exist.
func (db *DB) UpdateEmployee(ctx context.Context, id int64, input *EmployeeInput) (*Employee, error) {
	skillsJSON, err := json.Marshal(dedupSkills(input.Skills))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal skills: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`UPDATE employees SET name = $1, skills = $2, experience_years = $3, updated_at = NOW()
		 WHERE id = $4 RETURNING `+employeeColumns,
		input.Name, skillsJSON, input.ExperienceYears, id)

	e, err := scanEmployee(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}
	return e, nil
}

// DeleteEmployee removes an employee profile.
func (db *DB) DeleteEmployee(ctx context.Context, id int64) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("employee %d: %w", id, ErrNotFound)
	}
	return nil
}
