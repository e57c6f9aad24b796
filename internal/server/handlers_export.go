package server

import (
	"net/http"

	"mindwell/internal/export"
)

func csvHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}

func (s *Server) handleExportMoods(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	rows, err := s.deps.DB.MoodEntriesForUser(r.Context(), userID, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	csvHeaders(w, "moods.csv")
	_ = export.WriteMoodsCSV(w, rows)
}

func (s *Server) handleExportJournal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	rows, err := s.deps.DB.JournalEntriesForUser(r.Context(), userID, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	csvHeaders(w, "journal.csv")
	_ = export.WriteJournalCSV(w, rows)
}

func (s *Server) handleExportThoughts(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	rows, err := s.deps.DB.ThoughtRecordsForUser(r.Context(), userID, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	csvHeaders(w, "thoughts.csv")
	_ = export.WriteThoughtsCSV(w, rows)
}
