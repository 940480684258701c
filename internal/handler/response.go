package handler

import (
	"net/http"

	"github.com/cove/agent-demo/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
