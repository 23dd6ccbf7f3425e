package http

// ChartFormDTO is the form body of POST /saiku/chart.
type ChartFormDTO struct {
	Type string `validate:"omitempty,max=16,alpha"`
	SVG  string // presence is checked by the export pipeline
	Size *int   `validate:"omitempty,max=8192"` // zero or negative means no size hint
	Name string `validate:"omitempty,max=255,excludesall=/\\"`
}

// HealthResponseDTO is returned by GET /health.
type HealthResponseDTO struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
