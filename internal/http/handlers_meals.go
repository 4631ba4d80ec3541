package http

import (
	"net/http"
	"strings"

	"catering/internal/core"
	"catering/internal/log"
)

func (s *Server) handleCreateMeal(w http.ResponseWriter, r *http.Request) {
	var mc core.MealCreate
	if err := decodeJSON(w, r, &mc); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	meal, err := s.meals.Create(r.Context(), mc)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Meal created", log.NewFields().
		WithMeal(meal.ID, meal.Year, meal.Month, meal.Day, string(meal.Type), meal.Menu, meal.Count).
		ToSlice()...)
	writeJSON(w, http.StatusCreated, meal)
}

func (s *Server) handleListMeals(w http.ResponseWriter, r *http.Request) {
	meals, err := s.meals.ListAll(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

// handleMealsByMonth serves JSON, or an export when the month segment ends
// in .ics or .csv.
func (s *Server) handleMealsByMonth(w http.ResponseWriter, r *http.Request) {
	monthRaw := r.PathValue("month")
	format := ""
	for _, ext := range []string{".ics", ".csv"} {
		if strings.HasSuffix(monthRaw, ext) {
			format = ext
			monthRaw = strings.TrimSuffix(monthRaw, ext)
		}
	}
	r.SetPathValue("month", monthRaw)

	year, err := pathInt(r, "year")
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	month, err := pathInt(r, "month")
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	ym := core.YearMonth{Year: year, Month: month}
	if err := ym.Validate(); err != nil {
		writeError(w, r, log.OpList, core.NewValidationError("month", err))
		return
	}

	meals, err := s.meals.ListByMonth(r.Context(), year, month)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	var werr error
	switch format {
	case ".ics":
		werr = writeICS(w, ym, meals, s.now())
	case ".csv":
		werr = writeCSV(w, ym, meals)
	default:
		writeJSON(w, http.StatusOK, meals)
	}
	if werr != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Export write failed", werr, log.OpRender, log.ErrorTypeTransport)
	}
}

func (s *Server) handleGetMeal(w http.ResponseWriter, r *http.Request) {
	meal, err := s.meals.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) handleUpdateMeal(w http.ResponseWriter, r *http.Request) {
	var u core.MealUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	id := r.PathValue("id")
	meal, err := s.meals.Update(r.Context(), id, u)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Meal updated", log.FieldMealID, id)
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) handleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.meals.Delete(r.Context(), id); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Meal deleted", log.FieldMealID, id)
	w.WriteHeader(http.StatusNoContent)
}
