package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/project-scout/internal/db"
)

// handleScanStream starts a scan and streams its progress events over SSE.
// The optional "days" query parameter overrides the configured time range.
func (s *Server) handleScanStream(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid days parameter: %q", v))
			return
		}
		days = parsed
	}

	scanID, events, err := s.orchestrator.Start(r.Context(), days)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The channel closes when the scan finishes, fails, or is cancelled. A
	// client disconnect cancels r.Context(), which stops the scan too.
	for ev := range events {
		if err := sse.WriteEvent(string(ev.Kind), ev); err != nil {
			s.log.Warn("scan stream write failed",
				zap.String("scanId", scanID), zap.Error(err))
			return
		}
	}
}

// handleScanCancel requests cancellation of a running scan.
func (s *Server) handleScanCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.orchestrator.Registry().Cancel(id) {
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("no active scan with id %s", id))
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"scanId": id, "cancelled": true})
}

// handleLastScan returns the outcome of the most recent scan.
func (s *Server) handleLastScan(w http.ResponseWriter, r *http.Request) {
	last, err := s.db.GetLastScan(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if last == nil {
		s.errorResponse(w, http.StatusNotFound, "no scan has completed yet")
		return
	}
	s.jsonResponse(w, http.StatusOK, last)
}

// handleListProjects returns all stored projects in display order.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.db.ListProjects(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"projects": projects,
		"count":    len(projects),
	})
}

// handleGetProject returns a single project by ID.
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	project, err := s.db.GetProjectByID(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if project == nil {
		s.notFound(w, "project", id)
		return
	}
	s.jsonResponse(w, http.StatusOK, project)
}

// handleListEmployees returns all employee profiles.
func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.db.ListEmployees(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"employees": employees,
		"count":     len(employees),
	})
}

// handleCreateEmployee creates an employee profile.
func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	input, ok := s.decodeEmployeeInput(w, r)
	if !ok {
		return
	}
	employee, err := s.db.CreateEmployee(r.Context(), input)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, employee)
}

// handleGetEmployee returns a single employee profile.
func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	employee, err := s.db.GetEmployeeByID(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if employee == nil {
		s.notFound(w, "employee", id)
		return
	}
	s.jsonResponse(w, http.StatusOK, employee)
}

// handleUpdateEmployee replaces an employee profile.
func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	input, ok := s.decodeEmployeeInput(w, r)
	if !ok {
		return
	}
	employee, err := s.db.UpdateEmployee(r.Context(), id, input)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if employee == nil {
		s.notFound(w, "employee", id)
		return
	}
	s.jsonResponse(w, http.StatusOK, employee)
}

// handleDeleteEmployee deletes an employee profile.
func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.db.DeleteEmployee(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.notFound(w, "employee", id)
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMatch ranks an employee against the whole project corpus. With the
// optional project_id query parameter it scores that one project instead.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var projectID int64
	if v := r.URL.Query().Get("project_id"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid project_id: %q", v))
			return
		}
		projectID = parsed
	}

	employee, err := s.db.GetEmployeeByID(r.Context(), employeeID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if employee == nil {
		s.notFound(w, "employee", employeeID)
		return
	}

	if projectID != 0 {
		s.matchOne(w, r, employee, projectID)
		return
	}

	projects, err := s.db.ListProjects(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	corpus, err := s.matcher.MatchAll(r.Context(), projects, employee)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, corpus)
}

func (s *Server) matchOne(w http.ResponseWriter, r *http.Request, employee *db.Employee, projectID int64) {
	project, err := s.db.GetProjectByID(r.Context(), projectID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if project == nil {
		s.notFound(w, "project", projectID)
		return
	}

	result, err := s.matcher.Match(r.Context(), project, employee)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleDedup runs deduplication over the stored projects.
func (s *Server) handleDedup(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deduper.Run(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

// handleRebuildIndex recomputes skill idf weights from the stored projects.
func (s *Server) handleRebuildIndex(w http.ResponseWriter, r *http.Request) {
	updated, err := s.index.Rebuild(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int{"skillsUpdated": updated})
}

// pathID parses the {id} path segment. Writes a 400 response and returns
// false on failure.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid id: %q", r.PathValue("id")))
		return 0, false
	}
	return id, true
}

// decodeEmployeeInput decodes and validates an employee payload. Writes a
// 400 response and returns false on failure.
func (s *Server) decodeEmployeeInput(w http.ResponseWriter, r *http.Request) (*db.EmployeeInput, bool) {
	var input db.EmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return nil, false
	}
	if err := s.validate.Struct(&input); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &input, true
}

func (s *Server) notFound(w http.ResponseWriter, resource string, id int64) {
	s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("%s not found: %d", resource, id))
}
