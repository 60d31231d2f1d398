package handlers

import (
	"net/http"

	"chat-backend/internal/community"
	"chat-backend/internal/user"
	"chat-backend/internal/util"
)

type CategoryResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
}

func categoryResponse(r *http.Request, c *community.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Icon:        util.MediaURL(r, c.Icon),
	}
}

func (h *Handler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.community.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		resp = append(resp, categoryResponse(r, &categories[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.community.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse(r, c))
}

func (h *Handler) categoryInput(w http.ResponseWriter, r *http.Request) (community.CategoryInput, error) {
	if err := h.parseForm(w, r); err != nil {
		return community.CategoryInput{}, err
	}
	icon, err := formFile(r, "icon")
	if err != nil {
		return community.CategoryInput{}, err
	}
	return community.CategoryInput{
		Name:        formString(r, "name"),
		Description: formString(r, "description"),
		Icon:        icon,
		ClearIcon:   icon == nil && formClear(r, "icon"),
	}, nil
}

func (h *Handler) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	in, err := h.categoryInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.community.CreateCategory(r.Context(), user.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse(r, c))
}

func (h *Handler) UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	in, err := h.categoryInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.community.UpdateCategory(r.Context(), user.FromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse(r, c))
}

func (h *Handler) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.community.DeleteCategory(r.Context(), user.FromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
