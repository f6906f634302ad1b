package handler

import (
	"net/url"

	"github.com/mormegil-cz/nklink/internal/authority/models"
	dErrors "github.com/mormegil-cz/nklink/pkg/domain-errors"
)

// resolveRequest is a validated resolution request.
type resolveRequest struct {
	AuthorityID models.AuthorityID
	Params      models.Params
	Purge       bool
}

// parseResolveRequest validates the query parameters in order: autid, format,
// then the parameter the format requires. The first violation is returned.
func parseResolveRequest(q url.Values) (*resolveRequest, error) {
	id, err := models.ParseAuthorityID(q.Get("autid"))
	if err != nil {
		return nil, err
	}

	format := models.DefaultFormat
	if q.Has("format") {
		if format, err = models.ParseFormat(q.Get("format")); err != nil {
			return nil, err
		}
	}

	req := &resolveRequest{
		AuthorityID: id,
		Params:      models.Params{Format: format},
		Purge:       q.Get("action") == "purge",
	}

	switch format {
	case models.FormatJSONP:
		cb, err := models.ParseCallback(q.Get("callback"))
		if err != nil {
			return nil, err
		}
		req.Params.Callback = cb
	case models.FormatRedirect:
		raw := q.Get("target")
		if raw == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "Missing target")
		}
		target, err := models.ParseDatabase(raw)
		if err != nil {
			return nil, err
		}
		req.Params.Target = target
	}
	return req, nil
}
