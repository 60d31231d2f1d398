package handlers

import (
	"net/http"

	"chat-backend/internal/community"
	"chat-backend/internal/user"
	"chat-backend/internal/util"
)

type ChannelResponse struct {
	ID     uint    `json:"id"`
	Name   string  `json:"name"`
	Owner  uint    `json:"owner"`
	Topic  string  `json:"topic"`
	Server uint    `json:"server"`
	Banner *string `json:"banner"`
	Icon   *string `json:"icon"`
}

func channelResponse(r *http.Request, ch *community.Channel) ChannelResponse {
	return ChannelResponse{
		ID:     ch.ID,
		Name:   ch.Name,
		Owner:  ch.OwnerID,
		Topic:  ch.Topic,
		Server: ch.ServerID,
		Banner: util.MediaURL(r, ch.Banner),
		Icon:   util.MediaURL(r, ch.Icon),
	}
}

func (h *Handler) ListServerChannelsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	channels, err := h.community.ListChannels(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]ChannelResponse, 0, len(channels))
	for i := range channels {
		resp = append(resp, channelResponse(r, &channels[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetChannelHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	ch, err := h.community.GetChannel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channelResponse(r, ch))
}

func (h *Handler) channelInput(w http.ResponseWriter, r *http.Request) (community.ChannelInput, error) {
	var in community.ChannelInput
	if err := h.parseForm(w, r); err != nil {
		return in, err
	}
	serverID, err := formUint(r, "server")
	if err != nil {
		return in, err
	}
	icon, err := formFile(r, "icon")
	if err != nil {
		return in, err
	}
	banner, err := formFile(r, "banner")
	if err != nil {
		return in, err
	}
	return community.ChannelInput{
		Name:        formString(r, "name"),
		Topic:       formString(r, "topic"),
		ServerID:    serverID,
		Icon:        icon,
		Banner:      banner,
		ClearIcon:   icon == nil && formClear(r, "icon"),
		ClearBanner: banner == nil && formClear(r, "banner"),
	}, nil
}

func (h *Handler) CreateChannelHandler(w http.ResponseWriter, r *http.Request) {
	in, err := h.channelInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	ch, err := h.community.CreateChannel(r.Context(), user.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, channelResponse(r, ch))
}

func (h *Handler) UpdateChannelHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	in, err := h.channelInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	ch, err := h.community.UpdateChannel(r.Context(), user.FromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channelResponse(r, ch))
}

func (h *Handler) DeleteChannelHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.community.DeleteChannel(r.Context(), user.FromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
