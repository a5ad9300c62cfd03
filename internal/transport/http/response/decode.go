package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

// MaxBodyBytes caps every JSON request body. Auth payloads are tiny.
const MaxBodyBytes = 64 << 10

// DecodeJSON decodes exactly one JSON object from the request body into dst.
// Unknown fields, trailing values, empty and oversized bodies are all invalid_json.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return decodeErr(err)
	}

	// {}{} is two values
	switch err := dec.Decode(&struct{}{}); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return decodeErr(err)
	default:
		return domain.ErrInvalidJSON(errors.New("multiple JSON values"))
	}
}

func decodeErr(err error) error {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return domain.ErrInvalidJSON(fmt.Errorf("body larger than %d bytes", tooBig.Limit))
	case errors.Is(err, io.EOF):
		return domain.ErrInvalidJSON(errors.New("empty body"))
	default:
		return domain.ErrInvalidJSON(err)
	}
}
