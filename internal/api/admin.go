package api

import (
	"encoding/json"
	"net/http"
	"time"

	"infinite-experiment/poolroster/internal/common"
	"infinite-experiment/poolroster/internal/constants"
	"infinite-experiment/poolroster/internal/models/dtos"
)

// AdminLogin handles POST /api/v1/admin/login
func (h *Handlers) AdminLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.AdminLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondError(w, initTime, err, constants.ErrCodeMalformedRequest, http.StatusBadRequest)
			return
		}

		token, expiresAt, err := h.deps.Services.AdminAuth.Login(req.Password)
		if err != nil {
			handleError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Admin token issued", dtos.LoginResponse{
			Token:     token,
			ExpiresAt: expiresAt,
		})
	}
}
