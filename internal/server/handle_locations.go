package server

import (
	"net/http"

	"github.com/playperu/geodrive/internal/geo"
)

// LocationsResponse lists the preset locations a client can drive in.
type LocationsResponse struct {
	Locations []geo.Location `json:"locations"`
}

func handleListLocations() http.HandlerFunc {
	resp := LocationsResponse{Locations: geo.Catalog()}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}
