package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"user-registry/internal/model"
	"user-registry/internal/validation"
)

const (
	csrfField   = "authenticity_token"
	sessionName = "user_registry"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/users_form.js
var usersFormJS []byte

var pages = []string{"index", "new", "edit", "show", "not_found", "error"}

var funcs = template.FuncMap{
	"pluralize": func(n int, word string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s", word)
		}
		return fmt.Sprintf("%d %ss", n, word)
	},
}

func loadTemplates() (map[string]*template.Template, error) {
	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/form.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	out := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// userForm echoes submitted values back into the form.
type userForm struct {
	ID        uint
	FirstName string
	LastName  string
	Email     string
}

func formFor(u *model.User) userForm {
	return userForm{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

// Action is the URL the form posts to.
func (f userForm) Action() string {
	if f.ID == 0 {
		return "/users"
	}
	return fmt.Sprintf("/users/%d", f.ID)
}

type pageData struct {
	Title     string
	Notice    string
	CSRFField template.HTML
	CSRFToken string
	Revision  string
	Users     []model.User
	User      *model.User
	Form      userForm
	Errors    *validation.Result
	Message   string
}

// ErrorCount is the number of messages shown in the form summary.
func (p pageData) ErrorCount() int {
	if !p.Errors.HasErrors() {
		return 0
	}
	return len(p.Errors.Errors)
}

// FieldErrors returns the messages for one input.
func (p pageData) FieldErrors(field string) []string {
	return p.Errors.On(field)
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, title string) pageData {
	return pageData{
		Title:     title,
		Notice:    h.popFlash(w, r),
		CSRFField: csrf.TemplateField(r),
		CSRFToken: csrf.Token(r),
		Revision:  string(h.users.Revision()),
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	t, ok := h.templates[name]
	if !ok {
		h.log.Error("unknown template", zap.String("template", name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		h.log.Error("render template", zap.String("template", name), zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderNotFound(w http.ResponseWriter, r *http.Request) {
	data := h.page(w, r, "Not found")
	data.Message = "The page you were looking for doesn't exist."
	h.render(w, r, http.StatusNotFound, "not_found", data)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	data := h.page(w, r, http.StatusText(status))
	data.Message = msg
	h.render(w, r, status, "error", data)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, what string, err error) {
	h.log.Error(what, zap.String("request_id", RequestID(r.Context())), zap.Error(err))
	h.renderError(w, r, http.StatusInternalServerError, "Something went wrong on our side.")
}

// setFlash stores a one-shot notice shown on the next page.
func (h *Handler) setFlash(w http.ResponseWriter, r *http.Request, msg string) {
	sess, _ := h.store.Get(r, sessionName)
	sess.AddFlash(msg)
	if err := sess.Save(r, w); err != nil {
		h.log.Warn("save flash", zap.Error(err))
	}
}

func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request) string {
	sess, err := h.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	if err := sess.Save(r, w); err != nil {
		h.log.Warn("clear flash", zap.Error(err))
	}
	msg, _ := flashes[0].(string)
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func serveScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(usersFormJS)
}
