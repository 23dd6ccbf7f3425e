package domain

// Chart export events published by the NATS chart worker, on <subject>.completed and
// <subject>.failed.
const (
	ChartExportCompletedSuffix = ".completed"
	ChartExportFailedSuffix    = ".failed"
)

// ChartExportCompletedEvent reports a chart converted by the worker.
type ChartExportCompletedEvent struct {
	Type        string `json:"type"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Bytes       int    `json:"bytes"`
}

// ChartExportFailedEvent reports a chart the worker could not convert.
type ChartExportFailedEvent struct {
	Type         string `json:"type"`
	Kind         string `json:"kind"` // validation, upstream or internal
	ErrorMessage string `json:"error_message"`
}
