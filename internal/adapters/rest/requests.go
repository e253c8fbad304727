package rest

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/services"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateRequest returns a client-facing message for the first failed field.
func validateRequest(req any) error {
	err := getValidator().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Errorf("%s is required", fieldName(fe))
		case "max":
			return fmt.Errorf("%s must be at most %s", fieldName(fe), fe.Param())
		case "gte", "min":
			return fmt.Errorf("%s must be at least %s", fieldName(fe), fe.Param())
		default:
			return fmt.Errorf("%s is invalid", fieldName(fe))
		}
	}
	return err
}

var fieldNames = map[string]string{
	"UserID":  "user_id",
	"SongID":  "song_id",
	"SongIDs": "song_ids",
	"Mood":    "mood",
	"Limit":   "limit",
}

func fieldName(fe validator.FieldError) string {
	if n, ok := fieldNames[fe.StructField()]; ok {
		return n
	}
	return strings.ToLower(fe.Field())
}

type nextRequest struct {
	UserID  string   `validate:"required,max=256"`
	Mood    string   `validate:"max=64"`
	SongIDs []string `validate:"max=1000,dive,max=256"`
}

type outcomeRequest struct {
	UserID string `validate:"required,max=256"`
	SongID string `validate:"required,max=256"`
	Mood   string `validate:"max=64"`
	Value  bool
}

type userRequest struct {
	UserID string `validate:"required,max=256"`
}

type playlistRequest struct {
	Mood  string `validate:"max=64"`
	Limit int    `validate:"gte=0,max=1000"`
}

// params returns query parameters, merged with the form body for
// urlencoded POSTs.
func params(r *http.Request) (url.Values, error) {
	if r.Method == http.MethodPost && isFormContentType(r) {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		return r.Form, nil
	}
	return r.URL.Query(), nil
}

// songIDs collects candidates from song_ids=a,b,c and repeated song_id.
func songIDs(v url.Values) []string {
	var ids []string
	for _, raw := range v["song_ids"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	for _, id := range v["song_id"] {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func parseNext(r *http.Request) (nextRequest, error) {
	v, err := params(r)
	if err != nil {
		return nextRequest{}, err
	}
	req := nextRequest{
		UserID:  v.Get("user_id"),
		Mood:    v.Get("mood"),
		SongIDs: songIDs(v),
	}
	return req, validateRequest(req)
}

func parseOutcome(r *http.Request, withValue bool) (outcomeRequest, error) {
	v, err := params(r)
	if err != nil {
		return outcomeRequest{}, err
	}
	req := outcomeRequest{
		UserID: v.Get("user_id"),
		SongID: v.Get("song_id"),
		Mood:   v.Get("mood"),
		Value:  true,
	}
	if withValue {
		b, err := services.ParseFlag(v.Get("value"))
		if err != nil {
			return req, fmt.Errorf("value must be a boolean")
		}
		req.Value = b
	}
	return req, validateRequest(req)
}

func parseUser(r *http.Request) (userRequest, error) {
	v, err := params(r)
	if err != nil {
		return userRequest{}, err
	}
	req := userRequest{UserID: v.Get("user_id")}
	return req, validateRequest(req)
}

func parsePlaylist(r *http.Request) (playlistRequest, error) {
	v := r.URL.Query()
	req := playlistRequest{Mood: v.Get("mood")}
	if raw := strings.TrimSpace(v.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("limit must be an integer")
		}
		req.Limit = n
	}
	return req, validateRequest(req)
}
