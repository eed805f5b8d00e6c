package sorter

// Stats is the snapshot returned by Sort and available at any time
// from a Sorter via Stats().
type Stats struct {
	// TotalRows is the surviving, dedup-cap-bounded record count. Only
	// meaningful once Sort has run.
	TotalRows int64
	// TotalRowsProcessed counts every row seen by AddRow/AddFile,
	// including rejected ones.
	TotalRowsProcessed       int64
	FailedURLErrorCount      int64
	FailedProtocolErrorCount int64
}

// Map renders Stats using spec §4.5's field names, for callers that
// want the stats map shape verbatim.
func (s Stats) Map() map[string]int64 {
	return map[string]int64{
		"total_rows":                  s.TotalRows,
		"total_rows_processed":        s.TotalRowsProcessed,
		"failed_url_error_count":      s.FailedURLErrorCount,
		"failed_protocol_error_count": s.FailedProtocolErrorCount,
	}
}
