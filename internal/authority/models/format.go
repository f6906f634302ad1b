package models

import (
	dErrors "github.com/mormegil-cz/nklink/pkg/domain-errors"
)

// Format selects the response representation.
type Format string

// Supported formats. The set is closed; renderers switch over it.
const (
	FormatJSON     Format = "json"
	FormatJSONP    Format = "jsonp"
	FormatRedirect Format = "redirect"
	FormatHTML     Format = "html"
)

// DefaultFormat is used when the request has no format parameter.
const DefaultFormat = FormatHTML

// ParseFormat validates a raw format parameter. The empty string is not a
// format; callers apply DefaultFormat when the parameter is absent.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(raw); f {
	case FormatJSON, FormatJSONP, FormatRedirect, FormatHTML:
		return f, nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "Unsupported format")
	}
}

func (f Format) String() string {
	return string(f)
}

// Params carries the format-specific request parameters. Only the field
// matching Format is populated.
type Params struct {
	Format   Format
	Callback Callback
	Target   Database
}
