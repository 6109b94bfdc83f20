package http

import (
	"errors"
	"net/http"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/usecase"
	"github.com/hrmonitor/hrmonitor/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func loginHandler(uc *usecase.AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		p, err := uc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, model.ErrUnauthorized) {
				// one message for unknown users and wrong passwords
				errutil.HandleHTTP(r.Context(), w, goerr.New("Invalid username or password"), http.StatusUnauthorized)
				return
			}
			handleError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, loginResponse{
			Message:  "Login successful",
			Username: p.Username,
			Role:     p.Role,
		})
	}
}
