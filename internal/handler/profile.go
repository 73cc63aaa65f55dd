package handler

import (
	"net/http"

	"github.com/kababistan/orderhub/internal/identity"
	"github.com/kababistan/orderhub/internal/repository"
)

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

func (h *Handler) saveProfile(w http.ResponseWriter, r *http.Request) {
	var p repository.Profile
	if err := decodeBody(r, &p); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.profiles.Save(r.Context(), identity.FromContext(r.Context()), p); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

type favoriteResponse struct {
	ItemID   string `json:"itemId"`
	Favorite bool   `json:"favorite"`
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")
	fav, err := h.profiles.ToggleFavorite(r.Context(), identity.FromContext(r.Context()), itemID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, favoriteResponse{ItemID: itemID, Favorite: fav})
}
