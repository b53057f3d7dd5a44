package api

import (
	"net/http"
	"time"

	"infinite-experiment/poolroster/internal/common"
	"infinite-experiment/poolroster/internal/constants"
	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/models/dtos"
	"infinite-experiment/poolroster/internal/services"
	"infinite-experiment/poolroster/internal/spreadsheet"
)

// UploadGuests handles POST /api/v1/guests/upload?mode=full|append
//
// The workbook is sent as the multipart field "file".
func (h *Handlers) UploadGuests() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		mode, ok := constants.ParseUploadMode(r.URL.Query().Get("mode"))
		if !ok {
			handleError(w, initTime, services.ErrInvalidMode)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxUploadBytes)
		if err := r.ParseMultipartForm(h.deps.MaxUploadBytes); err != nil {
			common.RespondError(w, initTime, err, constants.ErrCodeMalformedRequest, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			common.RespondError(w, initTime, err, constants.ErrCodeMalformedRequest, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if err := spreadsheet.CheckExtension(header.Filename); err != nil {
			handleError(w, initTime, err)
			return
		}

		candidates, err := spreadsheet.Parse(file)
		if err != nil {
			logging.Warn("Spreadsheet rejected", "filename", header.Filename, "error", err)
			handleError(w, initTime, err)
			return
		}

		result, err := h.deps.Services.Ingestion.Ingest(r.Context(), mode, candidates)
		if err != nil {
			handleError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Roster updated", dtos.UploadResponse{
			Mode:     string(result.Mode),
			Received: result.Received,
			Added:    result.Added,
			Skipped:  result.Skipped,
			Removed:  result.Removed,
			Archived: result.Archived,
		})
	}
}
