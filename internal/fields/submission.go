// Package fields turns raw form submissions into the canonical shapes the
// sync layer works with: a typed FormSubmission, a local metadata map, and a
// remote Person payload. One adapter exists per form source so the rest of
// the system never sees framework-specific field naming.
package fields

import (
	"fmt"
	"net/url"
	"strings"
)

// FormSubmission is the normalized view of one submitted form.
// Flag maps are keyed by canonical cf_ field names with values of exactly
// 0 or 1; fields the user did not submit are absent, not zero.
type FormSubmission struct {
	Email     string
	Password  string
	Title     string
	FirstName string
	LastName  string
	JobTitle  string
	Employer  string
	Country   string
	Town      string
	Postcode  string
	Telephone string

	Marketing map[string]int
	Topics    map[string]int
	Areas     map[string]int
}

// Form field name prefixes for checkbox groups.
const (
	marketingPrefix = "marketing_"
	topicPrefix     = "toi_"
	areaPrefix      = "aoi_"
)

// Canonical cf_ name prefixes (the CRM's custom-field vocabulary).
const (
	CFMarketingPrefix = "cf_person_marketing_by_"
	CFTopicPrefix     = "cf_person_toi_"
	CFAreaPrefix      = "cf_person_aoi_"
)

// ParseNative builds a FormSubmission from a plain HTML form POST.
func ParseNative(values url.Values) FormSubmission {
	get := func(key string) string { return sanitize(values.Get(key)) }

	s := FormSubmission{
		Email:     strings.ToLower(get("email")),
		Password:  values.Get("password"), // never sanitized, never logged
		Title:     get("title"),
		FirstName: get("firstName"),
		LastName:  get("lastName"),
		JobTitle:  get("jobTitle"),
		Employer:  get("employer"),
		Country:   get("country"),
		Town:      get("town"),
		Postcode:  get("postcode"),
		Telephone: get("telephone"),
		Marketing: map[string]int{},
		Topics:    map[string]int{},
		Areas:     map[string]int{},
	}

	for key := range values {
		s.routeFlag(key, values.Get(key))
	}
	return s
}

// NinjaField is one field of a Ninja-Forms-style submission: numeric field id,
// a stable key, and a loosely-typed value.
type NinjaField struct {
	ID    int64       `json:"id"`
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// ParseNinja builds a FormSubmission from Ninja-Forms-style field/key pairs.
// Field keys follow the same naming as the native form.
func ParseNinja(fieldSet []NinjaField) FormSubmission {
	values := url.Values{}
	for _, f := range fieldSet {
		if f.Key == "" {
			continue
		}
		values.Set(f.Key, asString(f.Value))
	}
	return ParseNative(values)
}

// GravityFieldMap maps Gravity-Forms numeric input ids to logical field names.
type GravityFieldMap map[string]string

// DefaultGravityFieldMap covers the standard registration form layout.
func DefaultGravityFieldMap() GravityFieldMap {
	return GravityFieldMap{
		"1":   "email",
		"2":   "password",
		"3.2": "title",
		"3.3": "firstName",
		"3.6": "lastName",
		"4":   "jobTitle",
		"5":   "employer",
		"6.6": "country",
		"6.3": "town",
		"6.5": "postcode",
		"7":   "telephone",
	}
}

// ParseGravity builds a FormSubmission from a Gravity-Forms-style entry
// (numeric-string keys). Unmapped keys that carry a recognized checkbox
// prefix in their value-label are routed as flags; everything else is dropped.
func ParseGravity(entry map[string]interface{}, fieldMap GravityFieldMap) FormSubmission {
	values := url.Values{}
	for inputID, raw := range entry {
		if name, ok := fieldMap[inputID]; ok {
			values.Set(name, asString(raw))
			continue
		}
		// Checkbox inputs arrive keyed by their admin label
		// (e.g. "marketing_email", "toi_net_zero").
		if strings.HasPrefix(inputID, marketingPrefix) ||
			strings.HasPrefix(inputID, topicPrefix) ||
			strings.HasPrefix(inputID, areaPrefix) {
			values.Set(inputID, asString(raw))
		}
	}
	return ParseNative(values)
}

// routeFlag buckets a checkbox field into the right flag map, translating the
// form prefix into the canonical cf_ name and coercing the value to 0/1.
func (s *FormSubmission) routeFlag(key, value string) {
	switch {
	case strings.HasPrefix(key, marketingPrefix):
		s.Marketing[CFMarketingPrefix+key[len(marketingPrefix):]] = CoerceFlag(value)
	case strings.HasPrefix(key, topicPrefix):
		s.Topics[CFTopicPrefix+key[len(topicPrefix):]] = CoerceFlag(value)
	case strings.HasPrefix(key, areaPrefix):
		s.Areas[CFAreaPrefix+key[len(areaPrefix):]] = CoerceFlag(value)
	}
}

// CoerceFlag reduces any submitted checkbox value to exactly 0 or 1.
func CoerceFlag(value string) int {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return 0
	default:
		return 1
	}
}

// asString coerces a loosely-typed form value to a scalar string. Malformed
// values (arrays, objects, nil) become the empty string rather than an error.
func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%f", val), ".000000")
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	default:
		return ""
	}
}

// sanitize strips control characters and surrounding whitespace from a
// submitted value, mirroring what the form layer did in the legacy system.
func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
