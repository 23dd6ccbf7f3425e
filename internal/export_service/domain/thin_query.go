package domain

import (
	"encoding/json"
	"maps"
)

// FormatterPropertyKey is the query property the engine reads the result formatter from.
const FormatterPropertyKey = "saiku.olap.result.formatter"

// ThinQuery is the request-scoped query descriptor handed to the query engine.
// Treat it as immutable: the With* helpers return modified copies.
type ThinQuery struct {
	Name       string            `json:"name"`
	Query      string            `json:"query"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Properties map[string]any    `json:"properties,omitempty"`
}

func (q *ThinQuery) clone() *ThinQuery {
	c := *q
	c.Parameters = maps.Clone(q.Parameters)
	c.Properties = maps.Clone(q.Properties)
	return &c
}

// WithParameters returns a copy of q with params merged over its parameters.
func (q *ThinQuery) WithParameters(params map[string]string) *ThinQuery {
	c := q.clone()
	if len(params) == 0 {
		return c
	}
	if c.Parameters == nil {
		c.Parameters = make(map[string]string, len(params))
	}
	for k, v := range params {
		c.Parameters[k] = v
	}
	return c
}

// WithProperty returns a copy of q with key set in its properties, creating the map if needed.
func (q *ThinQuery) WithProperty(key string, value any) *ThinQuery {
	c := q.clone()
	if c.Properties == nil {
		c.Properties = make(map[string]any, 1)
	}
	c.Properties[key] = value
	return c
}

// QueryResult is the engine's structured result, passed through to JSON clients untouched.
type QueryResult = json.RawMessage
