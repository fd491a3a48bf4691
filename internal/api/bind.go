package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"casino-maintenance-backend/internal/apperr"
	"casino-maintenance-backend/internal/store"
)

const maxBodyBytes = 1 << 20

// validatable is satisfied by request types carrying ozzo rules.
type validatable interface {
	Validate() error
}

// bindJSON decodes a JSON body into T.
func bindJSON[T any](c *gin.Context) (T, error) {
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, apperr.Wrap(err, apperr.KindValidationFailed, describeJSONError(err))
	}
	return req, nil
}

// bindCreate decodes a full create payload and runs its validation rules.
func bindCreate[T validatable](c *gin.Context) (T, error) {
	req, err := bindJSON[T](c)
	if err != nil {
		return req, err
	}
	if err := req.Validate(); err != nil {
		return req, apperr.Wrap(err, apperr.KindValidationFailed, err.Error())
	}
	return req, nil
}

// bindPatch decodes a partial update strictly: unknown keys are rejected so
// a misspelt field never turns into a silent no-op.
func bindPatch[T any](c *gin.Context) (T, error) {
	var p T
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return p, apperr.Wrap(err, apperr.KindValidationFailed, "Could not read request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return p, apperr.ValidationFailed("Request body must be a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, apperr.Wrap(err, apperr.KindValidationFailed, describeJSONError(err))
	}
	if dec.More() {
		return p, apperr.ValidationFailed("Request body must contain a single JSON object")
	}
	return p, nil
}

func describeJSONError(err error) string {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Sprintf("Invalid value for %s: expected %s", typeErr.Field, typeErr.Type)
		}
		return fmt.Sprintf("Invalid value: expected %s", typeErr.Type)
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "Malformed JSON body"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "Unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	default:
		return err.Error()
	}
}

// pageFromQuery reads the skip and limit query parameters.
func pageFromQuery(c *gin.Context) (store.Page, error) {
	skip, err := intQuery(c, "skip", 0)
	if err != nil {
		return store.Page{}, err
	}
	limit, err := intQuery(c, "limit", store.DefaultLimit)
	if err != nil {
		return store.Page{}, err
	}
	return store.NewPage(skip, limit)
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.ValidationFailed(name + " must be an integer")
	}
	return v, nil
}

// idParam parses a positive surrogate id from the path.
func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ValidationFailed("Invalid " + name)
	}
	return id, nil
}
