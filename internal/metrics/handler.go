package metrics

import (
	"encoding/json"
	"net/http"
)

// Handler serves the JSON snapshot. selectorCount may be nil.
func (c *Collector) Handler(selectorCount func() int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var count int64
		if selectorCount != nil {
			count = selectorCount()
		}
		snap := c.metrics.Snapshot(count)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}
