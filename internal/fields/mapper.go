package fields

import (
	"strconv"
	"strings"

	"github.com/ignite/workbooks-sync/internal/account"
	"github.com/ignite/workbooks-sync/internal/workbooks"
)

// titleAliases normalizes the free-text title field. The legacy forms sent a
// mix of bare tokens and leading-dot variants.
var titleAliases = map[string]string{
	"dr":        "Dr.",
	".dr":       "Dr.",
	"dr.":       "Dr.",
	"doctor":    "Dr.",
	"mr":        "Mr.",
	".mr":       "Mr.",
	"mr.":       "Mr.",
	"mrs":       "Mrs.",
	".mrs":      "Mrs.",
	"mrs.":      "Mrs.",
	"ms":        "Ms.",
	".ms":       "Ms.",
	"ms.":       "Ms.",
	"miss":      "Miss",
	"prof":      "Prof.",
	".prof":     "Prof.",
	"prof.":     "Prof.",
	"professor": "Prof.",
}

// NormalizeTitle maps a submitted title through the alias table. Unrecognized
// values pass through sanitized but otherwise unchanged.
func NormalizeTitle(title string) string {
	if canonical, ok := titleAliases[strings.ToLower(strings.TrimSpace(title))]; ok {
		return canonical
	}
	return sanitize(title)
}

// PersonPayload builds the remote Person payload from a submission, using the
// API's flat/bracketed key convention. Empty profile fields are omitted.
func (s FormSubmission) PersonPayload() map[string]string {
	payload := map[string]string{
		workbooks.FieldEmail: s.Email,
	}

	set := func(key, value string) {
		if value != "" {
			payload[key] = value
		}
	}
	set(workbooks.FieldTitle, NormalizeTitle(s.Title))
	set(workbooks.FieldFirstName, s.FirstName)
	set(workbooks.FieldLastName, s.LastName)
	set(workbooks.FieldJobTitle, s.JobTitle)
	set(workbooks.FieldEmployer, s.Employer)
	set(workbooks.FieldCountry, s.Country)
	set(workbooks.FieldTown, s.Town)
	set(workbooks.FieldPostcode, s.Postcode)
	set(workbooks.FieldTelephone, s.Telephone)

	// Preference checkboxes go to the remote as integer custom fields.
	for key, v := range s.Marketing {
		payload[key] = strconv.Itoa(v)
	}
	for key, v := range s.Topics {
		payload[key] = strconv.Itoa(v)
	}
	for key, v := range s.Areas {
		payload[key] = strconv.Itoa(v)
	}

	return payload
}

// LocalMeta builds the account metadata map for a submission. Keys are the
// canonical CRM field names so the local copy mirrors the remote payload.
// Only submitted flags appear; omitted checkboxes must not clear stored ones.
func (s FormSubmission) LocalMeta() map[string]string {
	meta := make(map[string]string)

	if s.Employer != "" {
		meta[account.MetaEmployer] = s.Employer
	}
	for key, v := range s.Marketing {
		meta[key] = strconv.Itoa(v)
	}
	for key, v := range s.Topics {
		meta[key] = strconv.Itoa(v)
	}
	for key, v := range s.Areas {
		meta[key] = strconv.Itoa(v)
	}

	return meta
}
