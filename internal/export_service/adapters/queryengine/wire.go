package queryengine

import (
	"encoding/json"
	"errors"

	"github.com/osbi/saiku_services/internal/export_service/domain"
)

type createRequest struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

type executeRequest struct {
	Query *domain.ThinQuery `json:"query"`
}

type excelRequest struct {
	QueryName string `json:"queryName"`
	Formatter string `json:"formatter,omitempty"`
	Name      string `json:"name,omitempty"`
}

type csvRequest struct {
	QueryName string `json:"queryName"`
}

type htmlRequest struct {
	QueryName   string `json:"queryName"`
	Formatter   string `json:"formatter,omitempty"`
	CSS         bool   `json:"css"`
	TableOnly   bool   `json:"tableOnly"`
	WrapContent bool   `json:"wrapContent"`
}

// envelope is the reply of every call. Exactly one of the payload fields is set on success.
//
// ResultJSON carries the execute result as encoded JSON text. The gRPC transport maps every
// number in a google.protobuf.Struct to a double, so engines send the result this way to keep
// integers above 2^53 exact. Result wins when both are present.
type envelope struct {
	Error      string            `json:"error,omitempty"`
	Query      *domain.ThinQuery `json:"query,omitempty"`
	Result     json.RawMessage   `json:"result,omitempty"`
	ResultJSON string            `json:"resultJson,omitempty"`
	Artifact   *artifact         `json:"artifact,omitempty"`
}

// result returns the execute payload from whichever field carries it.
func (e *envelope) result() (json.RawMessage, error) {
	if len(e.Result) > 0 || e.ResultJSON == "" {
		return e.Result, nil
	}
	if !json.Valid([]byte(e.ResultJSON)) {
		return nil, errors.New("resultJson is not valid JSON")
	}
	return json.RawMessage(e.ResultJSON), nil
}

type artifact struct {
	ContentType string `json:"contentType"`
	Filename    string `json:"filename,omitempty"`
	Data        []byte `json:"data"` // base64 in JSON
}

func (a *artifact) toDomain() *domain.ExportArtifact {
	return &domain.ExportArtifact{ContentType: a.ContentType, Filename: a.Filename, Body: a.Data}
}
