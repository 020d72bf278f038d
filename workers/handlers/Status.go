package handlers

import (
	"net/http"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"
)

// StatusProvider is implemented by the coordinator.
type StatusProvider interface {
	Status() types.RelayerStatus
}

func Status(p StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseJSON(w, p.Status(), http.StatusOK)
	}
}
