// Package llm - extractor.go provides LLM-based structured extraction of
// project detail pages.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/project-scout/internal/types"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "ProjectDetails")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "map[string]int"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	// System description
	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	// Output schema
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	// Instructions
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	// Input text
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// ProjectDetailsSchema returns the extraction schema for freelance project
// detail pages. Requirements are extracted as skill names with occurrence
// counts so listing-badge counts and detail-text counts can be merged
// downstream.
func ProjectDetailsSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "ProjectDetails",
		Description: `You are an expert parser for freelance project listings. COPY TEXT VERBATIM - do not paraphrase or reword scalar fields.
Your task is to extract structured project information from a raw project detail page.
Dates must be in DD.MM.YYYY format when present in the text; leave them empty otherwise.
For requirements, collect every technology, tool, language, framework, and professional skill mentioned, lowercase each skill name, and count how many times it occurs in the text.`,
		Fields: []SchemaField{
			{
				Name:        "title",
				Type:        "\"string\"",
				Description: "Project title",
				Required:    true,
			},
			{
				Name:        "description",
				Type:        "\"string\"",
				Description: "Full project description text",
				Required:    true,
			},
			{
				Name:        "release_date",
				Type:        "\"string\"",
				Description: "Date the project was published, DD.MM.YYYY",
				Required:    false,
			},
			{
				Name:        "start_date",
				Type:        "\"string\"",
				Description: "Earliest project start date, DD.MM.YYYY",
				Required:    false,
			},
			{
				Name:        "location",
				Type:        "\"string\"",
				Description: "Work location or 'Remote'",
				Required:    false,
			},
			{
				Name:        "tenderer",
				Type:        "\"string\"",
				Description: "Name of the company or agency offering the project",
				Required:    false,
			},
			{
				Name:        "site_project_id",
				Type:        "\"string\"",
				Description: "Site-assigned project identifier or reference number",
				Required:    false,
			},
			{
				Name:        "requirements",
				Type:        "{\"skill\": count}",
				Description: "Lowercased skill names mapped to their occurrence counts",
				Required:    true,
			},
			{
				Name:        "workload",
				Type:        "\"string\"",
				Description: "Expected workload (e.g., 'full-time', '20h/week')",
				Required:    false,
			},
			{
				Name:        "rate",
				Type:        "\"string\"",
				Description: "Hourly or daily rate if stated",
				Required:    false,
			},
			{
				Name:        "duration",
				Type:        "\"string\"",
				Description: "Project duration (e.g., '6 months')",
				Required:    false,
			},
			{
				Name:        "budget",
				Type:        "\"string\"",
				Description: "Total budget if stated",
				Required:    false,
			},
		},
	}
}

// projectDetailsPayload mirrors the JSON the model returns for
// ProjectDetailsSchema.
type projectDetailsPayload struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	ReleaseDate   string         `json:"release_date"`
	StartDate     string         `json:"start_date"`
	Location      string         `json:"location"`
	Tenderer      string         `json:"tenderer"`
	SiteProjectID string         `json:"site_project_id"`
	Requirements  map[string]int `json:"requirements"`
	Workload      string         `json:"workload"`
	Rate          string         `json:"rate"`
	Duration      string         `json:"duration"`
	Budget        string         `json:"budget"`
}

// Validator checks extractor output against a JSON schema before it is
// trusted. Satisfied by the schemas package.
type Validator interface {
	Validate(schemaName string, jsonData []byte) error
}

// Extractor turns raw detail-page text into structured project fields.
type Extractor struct {
	client    Client
	validator Validator
}

// NewExtractor creates an Extractor. validator may be nil to skip schema
// validation of model output.
func NewExtractor(client Client, validator Validator) *Extractor {
	return &Extractor{client: client, validator: validator}
}

// Extract runs the ProjectDetails extraction over the given page text.
func (e *Extractor) Extract(ctx context.Context, pageText string) (*types.ProjectFields, error) {
	prompt := BuildExtractionPrompt(ProjectDetailsSchema(), pageText)

	raw, err := e.client.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, &ExtractionError{Stage: "generate", Cause: err}
	}

	data := []byte(CleanJSONBlock(raw))
	if e.validator != nil {
		if err := e.validator.Validate("project_details", data); err != nil {
			return nil, &ExtractionError{Stage: "validate", Cause: err}
		}
	}

	var payload projectDetailsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &ExtractionError{Stage: "decode", Cause: err}
	}

	fields := &types.ProjectFields{
		Title:          payload.Title,
		Description:    payload.Description,
		ReleaseDate:    payload.ReleaseDate,
		StartDate:      payload.StartDate,
		Location:       payload.Location,
		Tenderer:       payload.Tenderer,
		SiteProjectID:  payload.SiteProjectID,
		RequirementsTF: payload.Requirements,
		Workload:       payload.Workload,
		Rate:           payload.Rate,
		Duration:       payload.Duration,
		Budget:         payload.Budget,
	}
	if fields.RequirementsTF == nil {
		fields.RequirementsTF = map[string]int{}
	}
	return fields, nil
}
