package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, kind := range []string{"content", "album"} {
		for _, status := range []string{"success", "invalid", "error"} {
			SearchRequestsTotal.WithLabelValues(kind, status)
		}
		SearchDuration.WithLabelValues(kind)
		SearchCandidates.WithLabelValues(kind)
		SearchResults.WithLabelValues(kind)
	}

	for _, media := range []string{"image", "video", "audio"} {
		ContentsTotal.WithLabelValues(media)
		UploadsTotal.WithLabelValues(media, "success")
		UploadsTotal.WithLabelValues(media, "error")
		UploadBytes.WithLabelValues(media)
	}
	ContentsTotal.WithLabelValues("none")

	for _, kind := range []string{"tag", "character", "author"} {
		FacetsTotal.WithLabelValues(kind)
	}

	for _, status := range []string{"success", "failure"} {
		AuthAttemptsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"migrate", "create_content", "update_content", "delete_content",
		"contents_by_id", "access_info", "ids_with_facets", "album_ids_for_contents", "albums_by_id"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}
}
