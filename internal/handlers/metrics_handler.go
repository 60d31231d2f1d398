package handlers

import (
	"net/http"
	"strconv"

	"chat-backend/internal/metrics"
)

type MetricsResponse struct {
	Current struct {
		HTTP struct {
			TotalBytesOut  int64 `json:"total_bytes_out"`
			TotalRequests  int64 `json:"total_requests"`
			AvgBytesPerReq int64 `json:"avg_bytes_per_request"`
		} `json:"http"`
		Files struct {
			Stored         int64 `json:"stored"`
			Deleted        int64 `json:"deleted"`
			DeleteFailures int64 `json:"delete_failures"`
		} `json:"files"`
	} `json:"current"`
	Historical []metrics.MetricsSnapshot `json:"historical,omitempty"`
}

func (h *Handler) GetMetricsHandler(w http.ResponseWriter, r *http.Request) {
	response := MetricsResponse{}
	current := metrics.Current()

	// HTTP metrics
	response.Current.HTTP.TotalBytesOut = current.HTTPBytesOut
	response.Current.HTTP.TotalRequests = current.HTTPRequests
	if current.HTTPRequests > 0 {
		response.Current.HTTP.AvgBytesPerReq = current.HTTPBytesOut / current.HTTPRequests
	}

	// File storage metrics
	response.Current.Files.Stored = current.FilesStored
	response.Current.Files.Deleted = current.FilesDeleted
	response.Current.Files.DeleteFailures = current.FileDeleteFailures

	// Get snapshot history if requested
	if minutesParam := r.URL.Query().Get("minutes"); minutesParam != "" && h.metrics != nil {
		if minutes, err := strconv.Atoi(minutesParam); err == nil && minutes > 0 && minutes <= 1440 { // Max 24 hours
			snapshots, err := h.metrics.GetSnapshotHistory(r.Context(), minutes)
			if err != nil {
				writeError(w, err)
				return
			}
			response.Historical = snapshots
		}
	}

	writeJSON(w, http.StatusOK, response)
}
