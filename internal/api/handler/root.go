package handler

import (
	"io"
	"net/http"
)

// Root answers GET / so load balancers and humans can see the backend is up.
func Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Backend online!")
}
