package access_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/service/access"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

func TestAuthorizeRequiresAuthentication(t *testing.T) {
	gate := access.NewGate()

	err := gate.Authorize(model.Actor{}, access.OpOrderRead, access.Ownership{})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestAuthorizeRoleEligibility(t *testing.T) {
	gate := access.NewGate()
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}
	clinician := model.Actor{ID: uuid.New(), Role: model.RoleClinician}
	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	// Adjudication is admin-only
	assert.NoError(t, gate.Authorize(admin, access.OpOrderAdjudicate, access.Ownership{}))
	assert.Error(t, gate.Authorize(patient, access.OpOrderAdjudicate, access.Ownership{PatientID: patient.ID}))
	assert.Error(t, gate.Authorize(clinician, access.OpOrderAdjudicate, access.Ownership{}))

	// Placing orders is patient-only; admins never bypass role eligibility
	assert.NoError(t, gate.Authorize(patient, access.OpOrderPlace, access.Ownership{}))
	assert.Error(t, gate.Authorize(admin, access.OpOrderPlace, access.Ownership{}))

	// Attaching results is staff work
	assert.Error(t, gate.Authorize(patient, access.OpOrderAttachResult, access.Ownership{PatientID: patient.ID}))
	assert.NoError(t, gate.Authorize(clinician, access.OpOrderAttachResult, access.Ownership{}))
}

func TestAuthorizeOwnership(t *testing.T) {
	gate := access.NewGate()
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}
	clinician := model.Actor{ID: uuid.New(), Role: model.RoleClinician}
	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	owned := access.Ownership{PatientID: patient.ID, ClinicianID: clinician.ID}
	foreign := access.Ownership{PatientID: uuid.New(), ClinicianID: uuid.New()}

	// Patients act only on their own records
	assert.NoError(t, gate.Authorize(patient, access.OpAppointmentCancel, owned))
	assert.Error(t, gate.Authorize(patient, access.OpAppointmentCancel, foreign))

	// Clinicians on their assigned records
	assert.NoError(t, gate.Authorize(clinician, access.OpAppointmentConfirm, owned))
	assert.Error(t, gate.Authorize(clinician, access.OpAppointmentConfirm, foreign))

	// clinicianAnyOK ops drop the assignment check
	assert.NoError(t, gate.Authorize(clinician, access.OpOrderRead, foreign))

	// Admins bypass ownership entirely
	assert.NoError(t, gate.Authorize(admin, access.OpAppointmentCancel, foreign))
}

func TestAllowedRoles(t *testing.T) {
	assert.Equal(t, []model.Role{model.RoleAdmin}, access.AllowedRoles(access.OpOrderAdjudicate))
	assert.Equal(t, []model.Role{model.RolePatient}, access.AllowedRoles(access.OpRatingCreate))
	assert.Len(t, access.AllowedRoles(access.OpAppointmentRead), 3)
	assert.Nil(t, access.AllowedRoles(access.Operation("nope")))
}
