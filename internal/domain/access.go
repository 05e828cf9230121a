package domain

import "fmt"

// Operation names a guarded action on a plan or its contents.
type Operation string

const (
	OpViewPlan        Operation = "view_plan"
	OpUpdatePlan      Operation = "update_plan"
	OpDeletePlan      Operation = "delete_plan"
	OpManageCurators  Operation = "manage_curators"
	OpExportPlan      Operation = "export_plan"
	OpTransferPlan    Operation = "transfer_plan"
	OpComposePlan     Operation = "compose_plan"
	OpManageSkills    Operation = "manage_skills"
	OpEditCriteria    Operation = "edit_criteria"
	OpViewProgress    Operation = "view_progress"
	OpAddProgress     Operation = "add_progress"
	OpDeleteProgress  Operation = "delete_progress"
	OpEditNote        Operation = "edit_progress_note"
	OpApproveProgress Operation = "approve_progress"
	OpCommentProgress Operation = "comment_progress"
)

var (
	ownerOnly   = []Role{RoleOwner}
	curatorOnly = []Role{RoleCurator}
	anyMember   = []Role{RoleOwner, RoleCurator}
)

// Owner and curator capabilities are disjoint sets, not a hierarchy: an owner
// cannot approve progress on their own plan.
var requiredRoles = map[Operation][]Role{
	OpViewPlan:        anyMember,
	OpUpdatePlan:      anyMember,
	OpDeletePlan:      ownerOnly,
	OpManageCurators:  ownerOnly,
	OpExportPlan:      anyMember,
	OpTransferPlan:    anyMember,
	OpComposePlan:     anyMember,
	OpManageSkills:    ownerOnly,
	OpEditCriteria:    anyMember,
	OpViewProgress:    anyMember,
	OpAddProgress:     ownerOnly,
	OpDeleteProgress:  ownerOnly,
	OpEditNote:        ownerOnly,
	OpApproveProgress: curatorOnly,
	OpCommentProgress: curatorOnly,
}

// RoleOf resolves the caller's relationship to the plan. Ownership takes
// precedence over curator membership.
func RoleOf(p *Plan, userID string) Role {
	switch {
	case userID == "":
		return RoleNone
	case p.OwnerID == userID:
		return RoleOwner
	case p.HasCurator(userID):
		return RoleCurator
	default:
		return RoleNone
	}
}

// Authorize checks that the caller holds a role permitted for op on the plan.
func Authorize(p *Plan, userID string, op Operation) (Role, error) {
	role := RoleOf(p, userID)
	for _, r := range requiredRoles[op] {
		if r == role {
			return role, nil
		}
	}
	return role, fmt.Errorf("%s on plan %s as %s: %w", op, p.ID, role, ErrForbidden)
}
