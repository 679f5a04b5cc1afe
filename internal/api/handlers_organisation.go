package api

import (
	"net/http"
	"strings"

	"github.com/ignite/workbooks-sync/internal/organisation"
	"github.com/ignite/workbooks-sync/internal/pkg/httputil"
	"github.com/ignite/workbooks-sync/internal/pkg/logger"
)

// autocompleteLimit caps the suggestions returned per query.
const autocompleteLimit = 10

// orgSuggestion is one autocomplete entry.
type orgSuggestion struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// HandleOrganisationAutocomplete serves prefix matches from the organisation
// snapshot. Matching is case-insensitive; results are capped.
//
//	GET /api/organisations/autocomplete?q=
func (h *Handlers) HandleOrganisationAutocomplete(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		httputil.OK(w, map[string]interface{}{"organisations": []orgSuggestion{}})
		return
	}

	snap, err := h.orgs.CurrentSnapshot(r.Context())
	if err != nil {
		logger.Error("autocomplete snapshot unavailable", "error", err.Error())
		httputil.Error(w, http.StatusServiceUnavailable, "organisation data unavailable")
		return
	}

	matches := filterByPrefix(snap.Organisations, q, autocompleteLimit)
	httputil.OK(w, map[string]interface{}{
		"organisations": matches,
		"generated_at":  snap.GeneratedAt,
	})
}

// HandleOrganisationResync triggers the full bulk resync inline.
//
//	POST /api/organisations/resync
func (h *Handlers) HandleOrganisationResync(w http.ResponseWriter, r *http.Request) {
	count, err := h.orgs.ResyncAll(r.Context())
	if err != nil {
		logger.Error("on-demand organisation resync failed", "error", err.Error())
		httputil.Failure(w, http.StatusBadGateway, "Resync failed, please try again")
		return
	}

	httputil.OK(w, map[string]interface{}{
		"success": true,
		"count":   count,
	})
}

func filterByPrefix(orgs []organisation.CachedOrg, q string, limit int) []orgSuggestion {
	prefix := strings.ToLower(q)
	matches := make([]orgSuggestion, 0, limit)
	for _, org := range orgs {
		if strings.HasPrefix(strings.ToLower(org.Name), prefix) {
			matches = append(matches, orgSuggestion{ID: org.WorkbooksID, Name: org.Name})
			if len(matches) == limit {
				break
			}
		}
	}
	return matches
}
