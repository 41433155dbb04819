// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/samber/oops"

	"github.com/infinitejoke/accounts/internal/errutil"
	"github.com/infinitejoke/accounts/internal/logging"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		//nolint:errcheck // client may have gone away
		w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	//nolint:errcheck // client may have gone away
	w.Write(body)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, errorResponse{Error: message})
}

// respondInternal logs err and hides it from the client.
func respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	errutil.LogError(logging.FromContext(r.Context()), "request failed", err)
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// decode reads a JSON body into dst. Unknown fields are ignored.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return oops.Code("REQUEST_BODY_EMPTY").Errorf("request body is empty")
		}
		return oops.Code("REQUEST_BODY_INVALID").Wrap(err)
	}
	return nil
}
