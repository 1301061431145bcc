package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"goswapresolver/types"
)

func responseJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// responseError renders the failure envelope. Domain errors carry their
// code and details through; anything else becomes a bare message.
func responseError(w http.ResponseWriter, err error, code int) {
	resp := &APIResponse{
		Success:   false,
		Error:     err.Error(),
		Timestamp: time.Now().Unix(),
	}

	var domainErr *types.DomainError
	if errors.As(err, &domainErr) {
		resp.Error = domainErr.Message
		resp.Details = map[string]interface{}{"code": string(domainErr.Code)}
		for k, v := range domainErr.Details {
			resp.Details[k] = v
		}
	}
	responseJSON(w, resp, code)
}

func responseErrorMessage(w http.ResponseWriter, message string, code int) {
	responseJSON(w, &APIResponse{
		Success:   false,
		Error:     message,
		Timestamp: time.Now().Unix(),
	}, code)
}
