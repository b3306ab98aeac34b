package v1

import (
	"net/http"

	"github.com/zintix-labs/moneycart"
	"github.com/zintix-labs/moneycart/server/httperr"
)

type GamesHandler struct {
	lab *moneycart.Lab
}

func NewGamesHandler(lab *moneycart.Lab) *GamesHandler {
	return &GamesHandler{lab: lab}
}

// List GET /v1/games
func (h *GamesHandler) List(w http.ResponseWriter, r *http.Request) {
	sum, err := h.lab.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
