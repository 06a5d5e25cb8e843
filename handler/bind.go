package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// BindJSON decodes the request body into v. Unknown fields, trailing data
// and bodies over maxBytes are rejected; maxBytes <= 0 disables the limit.
func BindJSON(maxBytes int64) Bind {
	return func(r *http.Request, v any) error {
		if r.Body == nil || r.Body == http.NoBody {
			return errors.Join(ErrBadRequest, fmt.Errorf("%w: empty body", ErrInvalidJSON))
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			return ErrUnsupportedMediaType
		}

		body := io.Reader(r.Body)
		if maxBytes > 0 {
			body = io.LimitReader(r.Body, maxBytes+1)
		}

		data, err := io.ReadAll(body)
		if err != nil {
			return errors.Join(ErrBadRequest, err)
		}
		if maxBytes > 0 && int64(len(data)) > maxBytes {
			return ErrRequestEntityTooLarge
		}

		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return errors.Join(ErrBadRequest, fmt.Errorf("%w: empty body", ErrInvalidJSON))
			}
			return errors.Join(ErrBadRequest, fmt.Errorf("%w: %v", ErrInvalidJSON, err))
		}

		var extra json.RawMessage
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return errors.Join(ErrBadRequest, fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON))
		}
		return nil
	}
}
