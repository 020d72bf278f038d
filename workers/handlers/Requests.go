package handlers

import (
	"net/http"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/tracker"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"

	"github.com/go-chi/chi"
)

// Requests lists tracker records in one state, e.g. /requests/failed
// for operator review of parked verification mismatches.
func Requests(tr tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := chi.URLParam(r, "state")
		if _, ok := types.RedisStateSets[state]; !ok {
			responseJSON(w, &APIResponse{
				Status:  "error",
				Message: "unknown request state",
			}, http.StatusBadRequest)
			return
		}

		recs := tr.ListByState(state)
		if recs == nil {
			recs = []*types.TrackerRecord{}
		}
		responseJSON(w, recs, http.StatusOK)
	}
}
