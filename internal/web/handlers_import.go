package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

// Wire values of errorFrom. The dashboard client predates the Go service
// and keys its messages on these names.
const (
	errorFromValidation = "zod"
	errorFromStorage    = "db"
)

// importResponse is the body of POST /api/import.
type importResponse struct {
	Error        bool   `json:"error"`
	ErrorFrom    string `json:"errorFrom,omitempty"`
	AddedSharks  int64  `json:"addedSharks"`
	AddedBeaches int64  `json:"addedBeaches"`
	AddedCatches int64  `json:"addedCatches"`

	ImportID   string `json:"importId,omitempty"`
	Rows       int    `json:"rows,omitempty"`
	ArchiveKey string `json:"archiveKey,omitempty"`

	Message  string                 `json:"message,omitempty"`
	Action   string                 `json:"action,omitempty"`
	Code     string                 `json:"code,omitempty"`
	Problems []core.ValidationError `json:"problems,omitempty"`
}

// handleImport runs one catch CSV through the ingestion pipeline.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, errFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Import(ctx, header.Filename, file)
	if err != nil {
		s.respondImportError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		AddedSharks:  result.AddedSharks,
		AddedBeaches: result.AddedBeaches,
		AddedCatches: result.AddedCatches,
		ImportID:     result.ImportID,
		Rows:         result.Rows,
		ArchiveKey:   result.ArchiveKey,
	})
}

// respondImportError maps a failed import to its status and body. The
// pipeline has already logged the technical cause.
func (s *Server) respondImportError(w http.ResponseWriter, r *http.Request, err error) {
	var ie *core.ImportError
	if !errors.As(err, &ie) {
		// The import never started: no slot, or the client went away.
		status := http.StatusServiceUnavailable
		if errors.Is(err, core.ErrTooManyImports) {
			w.Header().Set("Retry-After", "5")
		} else if errors.Is(err, context.Canceled) {
			status = http.StatusRequestTimeout
		}
		s.respondError(w, r, err, status)
		return
	}

	msg := core.MapError(err)
	resp := importResponse{
		Error:   true,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	status := http.StatusInternalServerError
	switch ie.Kind {
	case core.KindValidation:
		status = http.StatusUnprocessableEntity
		resp.ErrorFrom = errorFromValidation
		resp.Problems = ie.Problems
	default:
		resp.ErrorFrom = errorFromStorage
	}
	writeJSON(w, status, resp)
}

// handleDownloadTemplate serves a header-only CSV with the required columns.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="catches_template.csv"`)
	_, _ = w.Write(core.TemplateCSV())
}

// handleImportHistory lists recent imports, newest first.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)
	history, err := s.service.ImportHistory(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []core.ImportRecord{}
	}
	writeJSON(w, http.StatusOK, history)
}
