package app

import (
	"net/url"
	"strings"
)

// parameterPrefix marks request values that feed query parameters: ?paramYear=2012 sets Year.
const parameterPrefix = "param"

// ExtractParameters collects the prefixed request values into a parameter map, keyed by the
// name after the prefix. Only the first value of a repeated key is used.
func ExtractParameters(values url.Values) map[string]string {
	params := make(map[string]string)
	for key, vals := range values {
		if len(key) <= len(parameterPrefix) || !strings.HasPrefix(key, parameterPrefix) || len(vals) == 0 {
			continue
		}
		params[key[len(parameterPrefix):]] = vals[0]
	}
	return params
}

// SubstituteParameters replaces every ${name} placeholder in text with its parameter value.
// Placeholders without a matching parameter are left as they are.
func SubstituteParameters(text string, params map[string]string) string {
	if len(params) == 0 {
		return text
	}
	pairs := make([]string, 0, 2*len(params))
	for name, value := range params {
		pairs = append(pairs, "${"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
