package utils

import (
	"net/http"

	relaymodel "github.com/fuchsia74/bedrock-relay/relay/model"
)

// WrapErr converts an internal error into the 500 error carrier the
// controller shapes into the OpenAI envelope.
func WrapErr(err error) *relaymodel.ErrorWithStatusCode {
	return &relaymodel.ErrorWithStatusCode{
		StatusCode: http.StatusInternalServerError,
		Error: relaymodel.Error{
			Message:  err.Error(),
			Type:     relaymodel.ErrTypeServer,
			Code:     relaymodel.ErrCodeServerError,
			RawError: err,
		},
	}
}
