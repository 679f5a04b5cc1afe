package api

import (
	"context"

	"github.com/ignite/workbooks-sync/internal/fields"
	"github.com/ignite/workbooks-sync/internal/organisation"
	"github.com/ignite/workbooks-sync/internal/service/member"
)

// MemberService runs the member-facing sync flows.
type MemberService interface {
	Register(ctx context.Context, sub fields.FormSubmission) (member.Result, error)
	RegisterEvent(ctx context.Context, sub fields.FormSubmission) (member.Result, error)
	UpdateProfile(ctx context.Context, sub fields.FormSubmission) (member.Result, error)
}

// OrgService serves the organisation snapshot and on-demand resync.
type OrgService interface {
	CurrentSnapshot(ctx context.Context) (organisation.Snapshot, error)
	ResyncAll(ctx context.Context) (int, error)
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	members MemberService
	orgs    OrgService
}

// NewHandlers creates the handler set.
func NewHandlers(members MemberService, orgs OrgService) *Handlers {
	return &Handlers{members: members, orgs: orgs}
}
