package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wlconsole/wlconsole/internal/form"
)

const maxUploadSize = 8 << 20 // 8 MB

type openFormRequest struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

// --- Clients ---

func (s *Server) clientRoutes(r *mux.Router) {
	s.mountList(r, "/clients", s.clients, func() interface{} { return s.clients.View() })

	r.HandleFunc("/clients/form", s.clientForm).Methods("GET")
	r.HandleFunc("/clients/form", s.openClientForm).Methods("POST")
	r.HandleFunc("/clients/form", s.updateClientDraft).Methods("PUT")
	r.HandleFunc("/clients/form", s.closeClientForm).Methods("DELETE")
	r.HandleFunc("/clients/form/unrestricted", s.setUnrestricted).Methods("POST")
	r.HandleFunc("/clients/form/add-days", s.addDays).Methods("POST")
	r.HandleFunc("/clients/form/templates", s.applyTemplates).Methods("POST")
	r.HandleFunc("/clients/form/lookup", s.lookup).Methods("POST")
	r.HandleFunc("/clients/form/auto-lookup", s.autoLookup).Methods("POST")
	r.HandleFunc("/clients/form/submit", s.submitClientForm).Methods("POST")

	r.HandleFunc("/clients/templates", s.templatePicker).Methods("GET")
	r.HandleFunc("/clients/templates/reload", s.reloadTemplates).Methods("POST")
}

func (s *Server) clientForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.clients.Form())
}

func (s *Server) openClientForm(w http.ResponseWriter, r *http.Request) {
	var req openFormRequest
	if !decodeBody(w, r, &req) {
		return
	}
	mode, err := form.ParseMode(req.Mode)
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	fv, err := s.clients.OpenForm(mode, req.ID)
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fv)
}

func (s *Server) updateClientDraft(w http.ResponseWriter, r *http.Request) {
	var d form.ClientDraft
	if !decodeBody(w, r, &d) {
		return
	}
	fv, err := s.clients.UpdateDraft(d)
	writeFormResult(w, fv, err)
}

func (s *Server) closeClientForm(w http.ResponseWriter, r *http.Request) {
	s.clients.CloseForm()
	writeJSON(w, http.StatusOK, s.clients.Form())
}

func (s *Server) setUnrestricted(w http.ResponseWriter, r *http.Request) {
	var req struct {
		On bool `json:"on"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	fv, err := s.clients.SetUnrestricted(req.On)
	writeFormResult(w, fv, err)
}

func (s *Server) addDays(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Days int `json:"days"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	fv, err := s.clients.AddDays(req.Days)
	writeFormResult(w, fv, err)
}

func (s *Server) applyTemplates(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selected []string `json:"selected"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	fv, err := s.clients.ApplyTemplates(req.Selected)
	writeFormResult(w, fv, err)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) {
	res, err := s.clients.Lookup(r.Context())
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lookup": res, "form": s.clients.Form()})
}

func (s *Server) autoLookup(w http.ResponseWriter, r *http.Request) {
	res, err := s.clients.AutoLookup(r.Context())
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lookup": res, "form": s.clients.Form()})
}

func (s *Server) submitClientForm(w http.ResponseWriter, r *http.Request) {
	env, err := s.clients.SubmitForm(r.Context())
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionResponse{Envelope: env, View: s.clients.View()})
}

func (s *Server) templatePicker(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, s.clients.Templates(q.Get("search"), q["selected"]))
}

func (s *Server) reloadTemplates(w http.ResponseWriter, r *http.Request) {
	s.clients.LoadTemplates(r.Context())
	writeJSON(w, http.StatusOK, s.clients.Templates("", nil))
}

// writeFormResult writes a dialog view or the error that prevented the change.
func writeFormResult[V any](w http.ResponseWriter, v V, err error) {
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// --- Whitelist ---

func (s *Server) whitelistRoutes(r *mux.Router) {
	s.mountList(r, "/whitelist", s.whitelist, func() interface{} { return s.whitelist.View() })

	r.HandleFunc("/whitelist/tab", s.switchTab).Methods("POST")

	r.HandleFunc("/whitelist/form", s.whitelistForm).Methods("GET")
	r.HandleFunc("/whitelist/form", s.openWhitelistForm).Methods("POST")
	r.HandleFunc("/whitelist/form", s.updateWhitelistDraft).Methods("PUT")
	r.HandleFunc("/whitelist/form", s.closeWhitelistForm).Methods("DELETE")
	r.HandleFunc("/whitelist/form/submit", s.submitWhitelistForm).Methods("POST")

	r.HandleFunc("/whitelist/import", s.importWhitelist).Methods("POST")
	r.HandleFunc("/whitelist/export", s.exportWhitelist).Methods("GET")
}

func (s *Server) switchTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tab string `json:"tab"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.whitelist.SwitchTab(req.Tab); err != nil {
		writeConsoleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.whitelist.View())
}

func (s *Server) whitelistForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.whitelist.Form())
}

func (s *Server) openWhitelistForm(w http.ResponseWriter, r *http.Request) {
	var req openFormRequest
	if !decodeBody(w, r, &req) {
		return
	}
	mode, err := form.ParseMode(req.Mode)
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	fv, err := s.whitelist.OpenForm(mode, req.ID)
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fv)
}

func (s *Server) updateWhitelistDraft(w http.ResponseWriter, r *http.Request) {
	var d form.WhitelistDraft
	if !decodeBody(w, r, &d) {
		return
	}
	fv, err := s.whitelist.UpdateDraft(d)
	writeFormResult(w, fv, err)
}

func (s *Server) closeWhitelistForm(w http.ResponseWriter, r *http.Request) {
	s.whitelist.CloseForm()
	writeJSON(w, http.StatusOK, s.whitelist.Form())
}

func (s *Server) submitWhitelistForm(w http.ResponseWriter, r *http.Request) {
	env, err := s.whitelist.SubmitForm(r.Context())
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionResponse{Envelope: env, View: s.whitelist.View()})
}

func (s *Server) importWhitelist(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file selected")
		return
	}
	defer file.Close()

	overwrite := r.FormValue("overwrite") == "on"
	env, err := s.whitelist.Import(r.Context(), hdr.Filename, file, overwrite)
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	slog.Info("whitelist imported", "tab", s.whitelist.Tab(), "file", hdr.Filename, "overwrite", overwrite, "result", env.Type)
	writeJSON(w, http.StatusOK, submissionResponse{Envelope: env, View: s.whitelist.View()})
}

func (s *Server) exportWhitelist(w http.ResponseWriter, r *http.Request) {
	body, ctype, tab, err := s.whitelist.Export(r.Context())
	if err != nil {
		writeConsoleError(w, err)
		return
	}
	defer body.Close()

	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(tab)+"-export"))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("export stream interrupted", "tab", tab, "error", err)
	}
}
