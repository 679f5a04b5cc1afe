package workbooks

import "time"

// API resources. Endpoint paths follow the remote convention of
// "<resource>.api".
const (
	ResourcePeople        = "crm/people"
	ResourceOrganisations = "crm/organisations"
)

// Payload field names. The remote API uses a flat naming convention with
// bracketed keys for nested location fields and a cf_ prefix for custom fields.
const (
	FieldEmail       = "main_location[email]"
	FieldCountry     = "main_location[country]"
	FieldTown        = "main_location[town]"
	FieldPostcode    = "main_location[postcode]"
	FieldTelephone   = "main_location[telephone]"
	FieldFirstName   = "person_first_name"
	FieldLastName    = "person_last_name"
	FieldTitle       = "person_personal_title"
	FieldJobTitle    = "person_job_title"
	FieldEmployer    = "employer_name"
	FieldOrgName     = "name"
	FieldID          = "id"
	FieldLockVersion = "lock_version"
)

// Config holds connection settings for the Workbooks API.
type Config struct {
	BaseURL         string
	APIKey          string
	LogicalDatabase string
	Timeout         time.Duration
	MaxRetries      int
}

// Record is a single CRM record as returned by search. Only the fields the
// sync layer cares about are decoded; everything else stays on the remote.
type Record struct {
	ID          int64  `json:"id"`
	LockVersion int64  `json:"lock_version"`
	ObjectRef   string `json:"object_ref"`
	Name        string `json:"name"`
	Email       string `json:"main_location[email]"`
}

// Filter is one search criterion: field, comparator ("eq", "ct", ...), value.
type Filter struct {
	Field      string
	Comparator string
	Value      string
}

// Eq builds an equality filter.
func Eq(field, value string) Filter {
	return Filter{Field: field, Comparator: "eq", Value: value}
}

// AffectedObject describes one record touched by a create or update call.
type AffectedObject struct {
	ID          int64  `json:"id"`
	LockVersion int64  `json:"lock_version"`
	ObjectRef   string `json:"object_ref"`
}

// WriteResult is the response envelope for create/update operations.
type WriteResult struct {
	AffectedObjects []AffectedObject `json:"affected_objects"`
}

// First returns the first affected object and whether it carries a usable id.
// Create responses are expected to contain exactly one entry; a missing or
// zero id is the "soft success" case the reconciler tolerates.
func (r *WriteResult) First() (AffectedObject, bool) {
	if r == nil || len(r.AffectedObjects) == 0 {
		return AffectedObject{}, false
	}
	obj := r.AffectedObjects[0]
	return obj, obj.ID != 0
}

type searchResponse struct {
	Data []Record `json:"data"`
}
