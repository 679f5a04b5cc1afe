package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ignite/workbooks-sync/internal/fields"
	"github.com/ignite/workbooks-sync/internal/pkg/httputil"
	"github.com/ignite/workbooks-sync/internal/pkg/logger"
	"github.com/ignite/workbooks-sync/internal/service/member"
)

// parseSubmission reads a submission from the request in any of the three
// supported shapes: a plain form POST, a Ninja-style fields array, or a
// Gravity-style entry object (both arrive as JSON).
func parseSubmission(r *http.Request) (fields.FormSubmission, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var probe struct {
			Fields json.RawMessage        `json:"fields"`
			Entry  map[string]interface{} `json:"entry"`
		}
		if err := json.NewDecoder(r.Body).Decode(&probe); err != nil {
			return fields.FormSubmission{}, err
		}
		if len(probe.Fields) > 0 {
			var fieldSet []fields.NinjaField
			if err := json.Unmarshal(probe.Fields, &fieldSet); err != nil {
				return fields.FormSubmission{}, err
			}
			return fields.ParseNinja(fieldSet), nil
		}
		return fields.ParseGravity(probe.Entry, fields.DefaultGravityFieldMap()), nil
	}

	if err := r.ParseForm(); err != nil {
		return fields.FormSubmission{}, err
	}
	return fields.ParseNative(r.PostForm), nil
}

// HandleRegister processes a membership registration.
//
//	POST /api/register
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	sub, err := parseSubmission(r)
	if err != nil {
		httputil.Failure(w, http.StatusBadRequest, "Invalid request")
		return
	}

	res, err := h.members.Register(r.Context(), sub)
	if err != nil {
		h.writeFlowFailure(w, r, "registration", sub.Email, err)
		return
	}

	httputil.Success(w, "Registration complete", resultIDs(res))
}

// HandleRegisterEvent processes a webinar / lead-generation registration.
//
//	POST /api/register/event
func (h *Handlers) HandleRegisterEvent(w http.ResponseWriter, r *http.Request) {
	sub, err := parseSubmission(r)
	if err != nil {
		httputil.Failure(w, http.StatusBadRequest, "Invalid request")
		return
	}

	res, err := h.members.RegisterEvent(r.Context(), sub)
	if err != nil {
		h.writeFlowFailure(w, r, "event registration", sub.Email, err)
		return
	}

	httputil.Success(w, "Event registration complete", resultIDs(res))
}

// HandleProfileUpdate pushes profile and preference changes to the linked
// remote record.
//
//	POST /api/profile/update
func (h *Handlers) HandleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	sub, err := parseSubmission(r)
	if err != nil {
		httputil.Failure(w, http.StatusBadRequest, "Invalid request")
		return
	}

	res, err := h.members.UpdateProfile(r.Context(), sub)
	if err != nil {
		h.writeFlowFailure(w, r, "profile update", sub.Email, err)
		return
	}

	httputil.Success(w, "Profile updated", resultIDs(res))
}

// writeFlowFailure maps a flow error to the client envelope. Validation
// failures get a specific message; everything else is deliberately generic
// with the detail only in the server log.
func (h *Handlers) writeFlowFailure(w http.ResponseWriter, r *http.Request, flow, email string, err error) {
	switch {
	case errors.Is(err, member.ErrInvalidEmail):
		httputil.Failure(w, http.StatusBadRequest, "A valid email address is required")
	case errors.Is(err, member.ErrMissingPassword):
		httputil.Failure(w, http.StatusBadRequest, "A password is required")
	case errors.Is(err, member.ErrDuplicateAccount):
		httputil.Failure(w, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, member.ErrUnknownAccount), errors.Is(err, member.ErrNotLinked):
		httputil.Failure(w, http.StatusNotFound, "No matching account found")
	default:
		logger.Error(flow+" failed", "email", email, "error", err.Error())
		httputil.Failure(w, http.StatusBadGateway, "Registration failed, please try again")
	}
}

func resultIDs(res member.Result) map[string]string {
	ids := map[string]string{"account_id": res.AccountID}
	if res.PersonID != 0 {
		ids["person_id"] = strconv.FormatInt(res.PersonID, 10)
	}
	return ids
}
