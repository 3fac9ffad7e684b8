package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wlconsole/wlconsole/internal/backend"
)

// listSession is the list behaviour shared by the clients and whitelist
// screens.
type listSession interface {
	Reload(ctx context.Context) error
	Search(query, field string) error
	ResetFilter()
	SortBy(key string) error
	SetPage(page int)
	SetPageSize(size int)
	Next() bool
	Prev() bool
	Toggle(id string, checked bool) bool
	SelectAll(checked bool)
	OpenBulkDelete() (int, error)
	CancelBulkDelete()
	ConfirmBulkDelete(ctx context.Context, text string) (backend.Envelope, bool, error)
	Delete(ctx context.Context, id string) (backend.Envelope, error)
}

type submissionResponse struct {
	backend.Envelope
	View interface{} `json:"view"`
}

type bulkDeleteResponse struct {
	Confirmed bool              `json:"confirmed"`
	Pending   int               `json:"pending,omitempty"`
	Result    *backend.Envelope `json:"result,omitempty"`
	View      interface{}       `json:"view"`
}

// listHandlers serves the list routes of one screen. view renders the
// screen after every call.
type listHandlers struct {
	session listSession
	view    func() interface{}
}

func (s *Server) mountList(r *mux.Router, prefix string, sess listSession, view func() interface{}) {
	h := &listHandlers{session: sess, view: view}

	r.HandleFunc(prefix, h.get).Methods("GET")
	r.HandleFunc(prefix+"/reload", h.reload).Methods("POST")
	r.HandleFunc(prefix+"/search", h.search).Methods("POST")
	r.HandleFunc(prefix+"/reset", h.reset).Methods("POST")
	r.HandleFunc(prefix+"/sort", h.sort).Methods("POST")
	r.HandleFunc(prefix+"/page", h.page).Methods("POST")
	r.HandleFunc(prefix+"/page-size", h.pageSize).Methods("POST")
	r.HandleFunc(prefix+"/next", h.next).Methods("POST")
	r.HandleFunc(prefix+"/prev", h.prev).Methods("POST")
	r.HandleFunc(prefix+"/select", h.selectOne).Methods("POST")
	r.HandleFunc(prefix+"/select-all", h.selectAll).Methods("POST")

	// Bulk delete: open, confirm, cancel
	r.HandleFunc(prefix+"/bulk-delete", h.openBulkDelete).Methods("POST")
	r.HandleFunc(prefix+"/bulk-delete/confirm", h.confirmBulkDelete).Methods("POST")
	r.HandleFunc(prefix+"/bulk-delete", h.cancelBulkDelete).Methods("DELETE")

	r.HandleFunc(prefix+"/{id:[0-9]+}", h.deleteOne).Methods("DELETE")
}

func (h *listHandlers) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.view())
}

func (h *listHandlers) reload(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Reload(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "reloading failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

func (h *listHandlers) search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		Field string `json:"field"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.session.Search(req.Query, req.Field); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

func (h *listHandlers) reset(w http.ResponseWriter, r *http.Request) {
	h.session.ResetFilter()
	writeJSON(w, http.StatusOK, h.view())
}

func (h *listHandlers) sort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.session.SortBy(req.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

func (h *listHandlers) page(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.session.SetPage(req.Page)
	writeJSON(w, http.StatusOK, h.view())
}

func (h *listHandlers) pageSize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Size int `json:"size"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.session.SetPageSize(req.Size)
	writeJSON(w, http.StatusOK, h.view())
}

func (h *listHandlers) next(w http.ResponseWriter, r *http.Request) {
	h.session.Next()
	writeJSON(w, http.StatusOK, h.view())
}

func (h *listHandlers) prev(w http.ResponseWriter, r *http.Request) {
	h.session.Prev()
	writeJSON(w, http.StatusOK, h.view())
}

func (h *listHandlers) selectOne(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      string `json:"id"`
		Checked bool   `json:"checked"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !h.session.Toggle(req.ID, req.Checked) {
		writeError(w, http.StatusNotFound, "item is not on the current page")
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

func (h *listHandlers) selectAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Checked bool `json:"checked"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.session.SelectAll(req.Checked)
	writeJSON(w, http.StatusOK, h.view())
}

func (h *listHandlers) openBulkDelete(w http.ResponseWriter, r *http.Request) {
	n, err := h.session.OpenBulkDelete()
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bulkDeleteResponse{Pending: n, View: h.view()})
}

func (h *listHandlers) confirmBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm string `json:"confirm"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	env, ok, err := h.session.ConfirmBulkDelete(r.Context(), req.Confirm)
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	resp := bulkDeleteResponse{Confirmed: ok, View: h.view()}
	if ok {
		resp.Result = &env
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *listHandlers) cancelBulkDelete(w http.ResponseWriter, r *http.Request) {
	h.session.CancelBulkDelete()
	writeJSON(w, http.StatusOK, h.view())
}

func (h *listHandlers) deleteOne(w http.ResponseWriter, r *http.Request) {
	env, err := h.session.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionResponse{Envelope: env, View: h.view()})
}
