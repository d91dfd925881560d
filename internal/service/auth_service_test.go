package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdesk/case-service/internal/auth"
	"github.com/lexdesk/case-service/internal/config"
	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/repository/inmem"
	apperrors "github.com/lexdesk/case-service/pkg/util/errorutil"
)

func newAuthService(store *inmem.Store) *AuthService {
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}}
	return NewAuthService(cfg, AuthDependencies{StudentRepo: store.Students(), StaffRepo: store.Staff()})
}

func TestStudentRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(inmem.NewStore())

	student, token, _, err := svc.RegisterStudent(ctx, "Lea", "Lea@Example.com", "pass-word")
	require.NoError(t, err)
	assert.Equal(t, "lea@example.com", student.Email)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectTypeStudent, claims.Kind)
	assert.Equal(t, student.ID, claims.Subject)

	_, _, _, err = svc.RegisterStudent(ctx, "Lea", "lea@example.com", "other")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	_, _, _, err = svc.LoginStudent(ctx, "lea@example.com", "pass-word")
	require.NoError(t, err)

	_, _, _, err = svc.LoginStudent(ctx, "lea@example.com", "wrong")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, _, _, err = svc.LoginStudent(ctx, "nobody@example.com", "pass-word")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestStaffLogin(t *testing.T) {
	ctx := context.Background()
	store := inmem.NewStore()
	svc := newAuthService(store)

	hash, err := auth.NewHasher(4).Hash("pass-word")
	require.NoError(t, err)
	staff := &domain.StaffMember{Name: "Ida", Email: "ida@example.com", PasswordHash: hash, Role: domain.StaffRoleInstructor, Active: true}
	require.NoError(t, store.Staff().Create(ctx, staff))

	_, token, _, err := svc.LoginStaff(ctx, "ida@example.com", "pass-word")
	require.NoError(t, err)
	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.Role)
	assert.Equal(t, domain.StaffRoleInstructor, *claims.Role)

	staff.Active = false
	require.NoError(t, store.Staff().Update(ctx, staff))
	_, _, _, err = svc.LoginStaff(ctx, "ida@example.com", "pass-word")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}
