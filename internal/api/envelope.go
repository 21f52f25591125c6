package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is the wire format version carried in every response.
// Clients check this before parsing the rest of the payload.
const envelopeVersion = 1

// Envelope is the uniform response wrapper: {v, success, data} on
// success, {v, success, error, code, message, details} on failure.
type Envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the envelope.
// Registered via huma config Transformers; errors produced by
// RegisterErrorHandler arrive here as *APIError.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch e := v.(type) {
	case *APIError:
		env := Envelope{
			V:       envelopeVersion,
			Success: false,
			Error:   e.Message,
		}
		if e.Code != "" {
			env.Code = e.Code
			env.Message = e.Message
			env.Details = e.Details
		}
		return env, nil
	case huma.StatusError:
		return Envelope{
			V:       envelopeVersion,
			Success: false,
			Error:   e.Error(),
		}, nil
	case error:
		return Envelope{
			V:       envelopeVersion,
			Success: false,
			Error:   e.Error(),
		}, nil
	}

	return Envelope{
		V:       envelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
