package validators

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
)

// IntField describes one bounded integer form field. Default applies when
// the field is missing or blank.
type IntField struct {
	Name    string
	Label   string
	Default int
	Min     int
	Max     int
}

// FormInt reads field from posted or query values.
func FormInt(values url.Values, field IntField) (int, error) {
	label := field.Label
	if label == "" {
		label = field.Name
	}
	raw := strings.TrimSpace(values.Get(field.Name))
	if raw == "" {
		return field.Default, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, label+" must be a whole number").
			WithDetails(map[string]any{"field": field.Name})
	}
	if n < field.Min {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be at least %d", label, field.Min)).
			WithDetails(map[string]any{"field": field.Name, "min": field.Min})
	}
	if field.Max > 0 && n > field.Max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be at most %d", label, field.Max)).
			WithDetails(map[string]any{"field": field.Name, "max": field.Max})
	}
	return n, nil
}

// FormString returns the trimmed value of key, cut to maxLen bytes.
func FormString(values url.Values, key string, maxLen int) string {
	v := strings.TrimSpace(values.Get(key))
	if maxLen > 0 && len(v) > maxLen {
		v = v[:maxLen]
	}
	return v
}
