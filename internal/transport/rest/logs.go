package rest

import "net/http"

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	Success(w, "", h.logs.List(r.URL.Query().Get("q")))
}
