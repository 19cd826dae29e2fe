package handlers

import (
	"errors"
	"net/http"

	"github.com/example/anime-browse/internal/platform/api"
	"github.com/example/anime-browse/services/browse/internal/jikan"
)

// writeUpstreamError maps a query service error onto the API error envelope.
func writeUpstreamError(w http.ResponseWriter, requestID string, err error) {
	if errors.Is(err, jikan.ErrInvalidArgument) {
		api.BadRequest(w, "INVALID_ARGUMENT", err.Error(), requestID, nil)
		return
	}

	var je *jikan.Error
	if !errors.As(err, &je) {
		api.Internal(w, requestID)
		return
	}

	switch je.Kind {
	case jikan.KindRateLimited:
		api.RateLimited(w, "UPSTREAM_RATE_LIMITED", je.Message, requestID, nil)
	case jikan.KindTransport:
		if je.HTTPStatus == http.StatusNotFound {
			api.NotFound(w, "NOT_FOUND", je.Message, requestID)
			return
		}
		api.BadGateway(w, "UPSTREAM_ERROR", je.Message, requestID, map[string]any{"upstream_status": je.HTTPStatus})
	default:
		api.BadGateway(w, "UPSTREAM_UNAVAILABLE", je.Message, requestID, nil)
	}
}

// writeResponse sends the upstream body byte for byte.
func writeResponse(w http.ResponseWriter, requestID string, resp *jikan.Response) {
	b, err := resp.MarshalJSON()
	if err != nil {
		api.Internal(w, requestID)
		return
	}
	api.WriteRawJSON(w, http.StatusOK, b)
}
