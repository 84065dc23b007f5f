package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"user-registry/internal/model"
	"user-registry/internal/service"
	"user-registry/internal/validation"
)

const (
	noticeCreated   = "User was successfully created."
	noticeUpdated   = "User was successfully updated."
	noticeDestroyed = "User was successfully destroyed."
)

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.serverError(w, r, "list users", err)
		return
	}
	data := h.page(w, r, "Users")
	data.Users = users
	h.render(w, r, http.StatusOK, "index", data)
}

func (h *Handler) serveNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "new", h.page(w, r, "New user"))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	input, ok := h.parseInput(w, r)
	if !ok {
		return
	}

	user, err := h.users.Create(r.Context(), input)
	if err != nil {
		var res *validation.Result
		if errors.As(err, &res) {
			data := h.page(w, r, "New user")
			data.Form = userForm{FirstName: input.FirstName, LastName: input.LastName, Email: input.Email}
			data.Errors = res
			h.render(w, r, http.StatusUnprocessableEntity, "new", data)
			return
		}
		h.serverError(w, r, "create user", err)
		return
	}

	h.log.Info("user created", zap.Uint("user_id", user.ID), zap.String("request_id", RequestID(r.Context())))
	h.setFlash(w, r, noticeCreated)
	http.Redirect(w, r, fmt.Sprintf("/users/%d", user.ID), http.StatusSeeOther)
}

func (h *Handler) serveShow(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	data := h.page(w, r, user.FullName())
	data.User = user
	h.render(w, r, http.StatusOK, "show", data)
}

func (h *Handler) serveEdit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	data := h.page(w, r, "Editing user")
	data.User = user
	data.Form = formFor(user)
	h.render(w, r, http.StatusOK, "edit", data)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		h.renderNotFound(w, r)
		return
	}
	input, ok := h.parseInput(w, r)
	if !ok {
		return
	}

	user, err := h.users.Update(r.Context(), id, input)
	if err != nil {
		var res *validation.Result
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			h.renderNotFound(w, r)
		case errors.As(err, &res):
			data := h.page(w, r, "Editing user")
			data.Form = userForm{ID: id, FirstName: input.FirstName, LastName: input.LastName, Email: input.Email}
			data.Errors = res
			h.render(w, r, http.StatusUnprocessableEntity, "edit", data)
		default:
			h.serverError(w, r, "update user", err)
		}
		return
	}

	h.log.Info("user updated", zap.Uint("user_id", user.ID), zap.String("request_id", RequestID(r.Context())))
	h.setFlash(w, r, noticeUpdated)
	http.Redirect(w, r, fmt.Sprintf("/users/%d", user.ID), http.StatusSeeOther)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		h.renderNotFound(w, r)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			h.renderNotFound(w, r)
			return
		}
		h.serverError(w, r, "delete user", err)
		return
	}

	h.log.Info("user destroyed", zap.Uint("user_id", id), zap.String("request_id", RequestID(r.Context())))
	h.setFlash(w, r, noticeDestroyed)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// parseInput reads the three editable fields. Anything else in the form,
// including the retired phone_number and position, is ignored.
func (h *Handler) parseInput(w http.ResponseWriter, r *http.Request) (service.UserInput, bool) {
	if err := r.ParseForm(); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.renderError(w, r, http.StatusRequestEntityTooLarge, "The submitted form is too large.")
			return service.UserInput{}, false
		}
		h.renderError(w, r, http.StatusBadRequest, "The submitted form could not be read.")
		return service.UserInput{}, false
	}
	return service.UserInput{
		FirstName: r.PostForm.Get(validation.FieldFirstName),
		LastName:  r.PostForm.Get(validation.FieldLastName),
		Email:     r.PostForm.Get(validation.FieldEmail),
	}, true
}

func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	id, ok := userID(r)
	if !ok {
		h.renderNotFound(w, r)
		return nil, false
	}
	user, err := h.users.Get(r.Context(), id)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		h.renderNotFound(w, r)
		return nil, false
	case err != nil:
		h.serverError(w, r, "load user", err)
		return nil, false
	}
	return user, true
}

func userID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
