package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"toolshare-backend/internal/domain"
)

const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return BadRequest("invalid request body")
	}
	if err := v.Struct(dst); err != nil {
		return BadRequest(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func parseID(s, name string) (int32, error) {
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidInput, name, s)
	}
	return int32(id), nil
}

func pathID(r *http.Request) (int32, error) {
	return parseID(mux.Vars(r)["id"], "id")
}

// queryDate reads a required yyyy-mm-dd query parameter.
func queryDate(r *http.Request, name string) (domain.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return domain.Date{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, name)
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, name, err)
	}
	return d, nil
}

// queryInt reads an optional integer query parameter bounded by [lo, hi].
func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", domain.ErrInvalidInput, name, lo, hi)
	}
	return n, nil
}

func itoa(id int32) string {
	return strconv.FormatInt(int64(id), 10)
}
