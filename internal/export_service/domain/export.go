package domain

import "strings"

// ExportFormat names the tabular export variants.
type ExportFormat string

const (
	FormatExcel ExportFormat = "xls"
	FormatCSV   ExportFormat = "csv"
	FormatJSON  ExportFormat = "json"
	FormatHTML  ExportFormat = "html"
)

// ParseExportFormat maps a case-insensitive name to an ExportFormat.
func ParseExportFormat(name string) (ExportFormat, bool) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatExcel, FormatCSV, FormatJSON, FormatHTML:
		return f, true
	default:
		return "", false
	}
}

// HTMLOptions are the rendering flags of an HTML export.
type HTMLOptions struct {
	CSS         bool
	TableOnly   bool
	WrapContent bool
}

// DefaultHTMLOptions returns css=false, tableonly=false, wrapcontent=true.
func DefaultHTMLOptions() HTMLOptions {
	return HTMLOptions{CSS: false, TableOnly: false, WrapContent: true}
}

// TabularExportRequest is the request-scoped input of an Excel, CSV, JSON or HTML export.
type TabularExportRequest struct {
	Username   string
	File       string            // repository key of the stored query
	Formatter  string            // optional cellset formatter name
	Name       string            // optional display name (Excel only)
	Parameters map[string]string // query parameters extracted from the request
	HTML       HTMLOptions
}

// ChartRequest is the input of a chart export.
type ChartRequest struct {
	Type string // converter type, e.g. "png"; empty means png
	SVG  string
	Size *int // optional width hint in pixels
	Name string
}

// ExportArtifact is a payload ready to be written to the client.
type ExportArtifact struct {
	ContentType string
	Filename    string // suggested download name; empty for inline payloads
	Body        []byte
}
