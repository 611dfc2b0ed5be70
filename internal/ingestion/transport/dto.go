package transport

// Import modes. Quarantine sends every collision to the review queue; upsert
// updates leads matched by phone.
const (
	ModeQuarantine = "quarantine"
	ModeUpsert     = "upsert"
)

type ImportRequest struct {
	Mode string `form:"mode" validate:"omitempty,oneof=quarantine upsert"`
}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportSummary reports what happened to every row of an upload.
type ImportSummary struct {
	BatchID    string     `json:"batch_id"`
	TotalRows  int        `json:"total_rows"`
	Created    int        `json:"created"`
	Updated    int        `json:"updated"`
	Duplicated int        `json:"duplicated"`
	Errored    int        `json:"errored"`
	Errors     []RowError `json:"errors"`
	ArchiveKey string     `json:"archive_key,omitempty"`
}
