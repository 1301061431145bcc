package handlers

import (
	"net/http"
	"time"
)

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, &APIResponse{
		Success:   true,
		Status:    "ok",
		Timestamp: time.Now().Unix(),
	}, http.StatusOK)
}
