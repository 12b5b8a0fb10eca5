package db

import "time"

// Project is a stored freelance project row.
type Project struct {
	ID             int64          `json:"id"`
	SiteName       string         `json:"siteName"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	ReleaseDate    string         `json:"releaseDate"`
	StartDate      string         `json:"startDate"`
	Location       string         `json:"location"`
	Tenderer       string         `json:"tenderer"`
	SiteProjectID  string         `json:"siteProjectId"`
	Rate           string         `json:"rate"`
	URL            string         `json:"url"`
	Budget         string         `json:"budget"`
	Duration       string         `json:"duration"`
	Workload       string         `json:"workload"`
	RequirementsTF map[string]int `json:"requirements"`
	SortOrder      int            `json:"sortOrder"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Skill is a stored skill row with its inverse document frequency and an
// optional cached embedding vector.
type Skill struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IDF       float64   `json:"idf"`
	Embedding []float64 `json:"embedding,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Employee is a stored employee profile. Skills keeps the submitted order,
// deduplicated case-insensitively with the first occurrence winning.
type Employee struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Skills          []string  `json:"skills"`
	ExperienceYears float64   `json:"experienceYears"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// EmployeeInput carries the writable fields of an employee profile. Updates
// replace the skill list wholesale.
type EmployeeInput struct {
	Name            string   `json:"name" validate:"required"`
	Skills          []string `json:"skills" validate:"required,dive,required"`
	ExperienceYears float64  `json:"experienceYears" validate:"gte=0"`
}
