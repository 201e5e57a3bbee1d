// Package access implements the role and ownership gate every lifecycle
// operation consults before touching a record.
package access

import (
	"github.com/google/uuid"

	"github.com/brookside/clinic-portal/internal/model"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

// Operation names a gated portal action.
type Operation string

const (
	OpAppointmentRequest    Operation = "appointment.request"
	OpAppointmentConfirm    Operation = "appointment.confirm"
	OpAppointmentReschedule Operation = "appointment.reschedule"
	OpAppointmentComplete   Operation = "appointment.complete"
	OpAppointmentCancel     Operation = "appointment.cancel"
	OpAppointmentRead       Operation = "appointment.read"

	OpOrderPlace         Operation = "order.place"
	OpOrderPayCard       Operation = "order.pay_card"
	OpOrderSubmitClaim   Operation = "order.submit_claim"
	OpOrderAdjudicate    Operation = "order.adjudicate"
	OpOrderScheduleVisit Operation = "order.schedule_visit"
	OpOrderAttachResult  Operation = "order.attach_result"
	OpOrderCancel        Operation = "order.cancel"
	OpOrderRead          Operation = "order.read"

	OpRatingCreate Operation = "rating.create"

	OpStatsAdmin   Operation = "stats.admin"
	OpStatsPatient Operation = "stats.patient"
)

// Ownership carries the owner ids of the resource under the operation. Zero
// fields mean "no such owner axis" for that resource.
type Ownership struct {
	PatientID   uuid.UUID
	ClinicianID uuid.UUID
}

// rule pairs the allow-set of roles with the ownership discipline applied to
// the non-admin roles. Admin always bypasses ownership but never role
// eligibility.
type rule struct {
	roles          map[model.Role]bool
	ownershipFree  bool // clinician/patient need no ownership match
	clinicianAnyOK bool // any clinician may act, not just the assigned one
}

func roles(rs ...model.Role) map[model.Role]bool {
	m := make(map[model.Role]bool, len(rs))
	for _, r := range rs {
		m[r] = true
	}
	return m
}

// table is the static operation→roles map. It is the single source of truth
// for who may trigger what; handlers and services both consult it.
var table = map[Operation]rule{
	OpAppointmentRequest:    {roles: roles(model.RolePatient, model.RoleClinician, model.RoleAdmin), ownershipFree: true},
	OpAppointmentConfirm:    {roles: roles(model.RoleClinician, model.RoleAdmin)},
	OpAppointmentReschedule: {roles: roles(model.RolePatient, model.RoleClinician, model.RoleAdmin)},
	OpAppointmentComplete:   {roles: roles(model.RoleClinician, model.RoleAdmin)},
	OpAppointmentCancel:     {roles: roles(model.RolePatient, model.RoleClinician, model.RoleAdmin)},
	OpAppointmentRead:       {roles: roles(model.RolePatient, model.RoleClinician, model.RoleAdmin)},

	OpOrderPlace:         {roles: roles(model.RolePatient), ownershipFree: true},
	OpOrderPayCard:       {roles: roles(model.RolePatient)},
	OpOrderSubmitClaim:   {roles: roles(model.RolePatient)},
	OpOrderAdjudicate:    {roles: roles(model.RoleAdmin)},
	OpOrderScheduleVisit: {roles: roles(model.RolePatient, model.RoleAdmin)},
	OpOrderAttachResult:  {roles: roles(model.RoleClinician, model.RoleAdmin), clinicianAnyOK: true},
	OpOrderCancel:        {roles: roles(model.RolePatient, model.RoleAdmin)},
	OpOrderRead:          {roles: roles(model.RolePatient, model.RoleClinician, model.RoleAdmin), clinicianAnyOK: true},

	OpRatingCreate: {roles: roles(model.RolePatient)},

	OpStatsAdmin:   {roles: roles(model.RoleAdmin), ownershipFree: true},
	OpStatsPatient: {roles: roles(model.RolePatient)},
}

// Gate is a pure authorization function; it holds no mutable state.
type Gate struct{}

func NewGate() *Gate {
	return &Gate{}
}

// Authorize decides whether actor may perform op on the resource owned per
// owners. A denial is always an explicit Forbidden error, never a silent pass.
func (g *Gate) Authorize(actor model.Actor, op Operation, owners Ownership) error {
	if !actor.Authenticated() {
		return apperrors.Forbidden("authentication required")
	}

	r, ok := table[op]
	if !ok {
		return apperrors.Forbidden("unknown operation")
	}
	if !r.roles[actor.Role] {
		return apperrors.Forbidden("role not permitted for this operation")
	}

	if actor.Role == model.RoleAdmin || r.ownershipFree {
		return nil
	}

	switch actor.Role {
	case model.RolePatient:
		if owners.PatientID != actor.ID {
			return apperrors.Forbidden("patients may only act on their own records")
		}
	case model.RoleClinician:
		if !r.clinicianAnyOK && owners.ClinicianID != actor.ID {
			return apperrors.Forbidden("clinicians may only act on their assigned records")
		}
	}
	return nil
}

// AllowedRoles reports the roles eligible to perform op.
func AllowedRoles(op Operation) []model.Role {
	r, ok := table[op]
	if !ok {
		return nil
	}
	out := make([]model.Role, 0, len(r.roles))
	for _, candidate := range []model.Role{model.RoleAdmin, model.RoleClinician, model.RolePatient} {
		if r.roles[candidate] {
			out = append(out, candidate)
		}
	}
	return out
}
