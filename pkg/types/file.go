package types

// DefaultImportance is the mid-range importance used when a file carries no score
const DefaultImportance = 50.0

// FileRecord is per-file metadata produced by ingestion alongside the combined content
type FileRecord struct {
	Path       string   `json:"path"`
	Size       int64    `json:"size"`
	Language   string   `json:"language,omitempty"`
	Importance *float64 `json:"importance,omitempty"`
}

// ImportanceOr returns the recorded importance or def when absent
func (f FileRecord) ImportanceOr(def float64) float64 {
	if f.Importance == nil {
		return def
	}
	return *f.Importance
}

// Score is a convenience for building an importance pointer
func Score(v float64) *float64 {
	return &v
}

// FileRecordIndex maps file records by path. Later records win.
func FileRecordIndex(files []FileRecord) map[string]FileRecord {
	idx := make(map[string]FileRecord, len(files))
	for _, f := range files {
		idx[f.Path] = f
	}
	return idx
}
