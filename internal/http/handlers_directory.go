package http

import (
	"net/http"

	"catering/internal/core"
	"catering/internal/log"
)

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var c core.CompanyCreate
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	company, err := s.companies.CreateCompany(r.Context(), c)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, company)
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.companies.ListCompanies(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var e core.EmployeeCreate
	if err := decodeJSON(w, r, &e); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	employee, err := s.employees.CreateEmployee(r.Context(), e)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.employees.ListEmployees(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}
