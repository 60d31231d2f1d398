package handlers

import (
	"net/http"

	"chat-backend/internal/community"
	"chat-backend/internal/user"
)

type ServerResponse struct {
	ID           uint              `json:"id"`
	Name         string            `json:"name"`
	Owner        uint              `json:"owner"`
	Category     uint              `json:"category"`
	CategoryName string            `json:"category_name"`
	Description  *string           `json:"description"`
	Channels     []ChannelResponse `json:"channels"`
	NumMembers   *int64            `json:"num_members,omitempty"`
}

func serverResponse(r *http.Request, s *community.Server, withNumMembers bool) ServerResponse {
	resp := ServerResponse{
		ID:          s.ID,
		Name:        s.Name,
		Owner:       s.OwnerID,
		Category:    s.CategoryID,
		Description: s.Description,
		Channels:    make([]ChannelResponse, 0, len(s.Channels)),
	}
	if s.Category != nil {
		resp.CategoryName = s.Category.Name
	}
	for i := range s.Channels {
		resp.Channels = append(resp.Channels, channelResponse(r, &s.Channels[i]))
	}
	if withNumMembers {
		n := s.NumMembers
		resp.NumMembers = &n
	}
	return resp
}

// ListServersHandler serves GET /servers/. Query parameters narrow the
// listing in this order: category, by_user, with_num_members, qty,
// by_serverid.
func (h *Handler) ListServersHandler(w http.ResponseWriter, r *http.Request) {
	q, err := community.ParseServerQuery(r.URL.Query(), user.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	servers, err := h.community.ListServers(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]ServerResponse, 0, len(servers))
	for i := range servers {
		resp = append(resp, serverResponse(r, &servers[i], q.CountsMembers()))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetServerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	srv, err := h.community.GetServer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serverResponse(r, srv, true))
}

func (h *Handler) serverInput(w http.ResponseWriter, r *http.Request) (community.ServerInput, error) {
	if err := h.parseForm(w, r); err != nil {
		return community.ServerInput{}, err
	}
	categoryID, err := formUint(r, "category")
	if err != nil {
		return community.ServerInput{}, err
	}
	return community.ServerInput{
		Name:        formString(r, "name"),
		CategoryID:  categoryID,
		Description: formString(r, "description"),
	}, nil
}

func (h *Handler) CreateServerHandler(w http.ResponseWriter, r *http.Request) {
	in, err := h.serverInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	srv, err := h.community.CreateServer(r.Context(), user.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, serverResponse(r, srv, true))
}

func (h *Handler) UpdateServerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	in, err := h.serverInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	srv, err := h.community.UpdateServer(r.Context(), user.FromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serverResponse(r, srv, true))
}

func (h *Handler) DeleteServerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.community.DeleteServer(r.Context(), user.FromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) JoinServerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.community.JoinServer(r.Context(), user.FromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Joined server"})
}

func (h *Handler) LeaveServerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.community.LeaveServer(r.Context(), user.FromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Left server"})
}
