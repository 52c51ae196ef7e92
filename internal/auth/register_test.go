package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/askbox-backend/internal/users"
	"github.com/angelmondragon/askbox-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/askbox-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubTxRunner struct {
	calls int
}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return fn(nil)
}

type stubUserRepo struct {
	createErr   error
	created     []users.CreateUserDTO
	privileged  []uuid.UUID
	privilegeTo [2]bool
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, dto)
	user := dto.ToModel()
	return user, nil
}

func (s *stubUserRepo) SetPrivileges(ctx context.Context, id uuid.UUID, isAdmin, isStaff bool) error {
	s.privileged = append(s.privileged, id)
	s.privilegeTo = [2]bool{isAdmin, isStaff}
	return nil
}

type stubProvisioner struct {
	err   error
	calls []uuid.UUID
}

func (s *stubProvisioner) Provision(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls = append(s.calls, userID)
	return &models.Profile{UserID: userID, Avatar: "img/user.png"}, nil
}

type stubHasher struct {
	calls int
	hash  string
	err   error
}

func (s *stubHasher) Hash(password string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if s.hash != "" {
		return s.hash, nil
	}
	return "hashed:" + password, nil
}

type registerFixture struct {
	tx          *stubTxRunner
	lookup      *stubLookup
	repo        *stubUserRepo
	provisioner *stubProvisioner
	hasher      *stubHasher
}

func newRegisterFixture() *registerFixture {
	return &registerFixture{
		tx:          &stubTxRunner{},
		lookup:      newStubLookup(),
		repo:        &stubUserRepo{},
		provisioner: &stubProvisioner{},
		hasher:      &stubHasher{},
	}
}

func (f *registerFixture) params() RegisterServiceParams {
	return RegisterServiceParams{
		TxRunner:                  f.tx,
		Lookup:                    f.lookup,
		UserRepoFactory:           func(*gorm.DB) UserWriter { return f.repo },
		ProfileProvisionerFactory: func(*gorm.DB) ProfileProvisioner { return f.provisioner },
		Hasher:                    f.hasher,
	}
}

func (f *registerFixture) service(t *testing.T) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(f.params())
	require.NoError(t, err)
	return svc
}

func validRequest() RegisterRequest {
	return RegisterRequest{
		Username:        "bob",
		Email:           "bob@example.com",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
	}
}

func TestNewRegisterServiceRequiresDependencies(t *testing.T) {
	f := newRegisterFixture()
	params := f.params()
	params.TxRunner = nil
	_, err := NewRegisterService(params)
	require.Error(t, err)

	params = f.params()
	params.Hasher = nil
	_, err = NewRegisterService(params)
	require.Error(t, err)

	params = f.params()
	params.Lookup = nil
	_, err = NewAdminRegisterService(params)
	require.Error(t, err)
}

func TestRegisterCreatesIdentityAndProfile(t *testing.T) {
	f := newRegisterFixture()
	svc := f.service(t)

	req := validRequest()
	req.Username = "  Bob  "
	req.Email = " Bob@Example.COM "
	user, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, "Bob", user.Username)
	require.Equal(t, "bob@example.com", user.Email)
	require.True(t, user.IsActive)
	require.False(t, user.IsStaff)
	require.False(t, user.IsAdmin)

	require.Len(t, f.repo.created, 1)
	require.Equal(t, "hashed:s3cret-pass", f.repo.created[0].PasswordHash)
	require.Equal(t, []uuid.UUID{user.ID}, f.provisioner.calls)
	require.Empty(t, f.repo.privileged)
	require.Equal(t, 1, f.tx.calls)
}

func TestRegisterPasswordMismatchCreatesNothing(t *testing.T) {
	f := newRegisterFixture()
	svc := f.service(t)

	req := validRequest()
	req.ConfirmPassword = "different"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	fields, ok := Rejections(err)
	require.True(t, ok)
	require.True(t, fields.Has(FieldPassword, ReasonPasswordMismatch))
	require.Len(t, fields, 1)

	require.Zero(t, f.hasher.calls, "password must not be hashed for a rejected submission")
	require.Zero(t, f.tx.calls)
	require.Empty(t, f.repo.created)
	require.Empty(t, f.provisioner.calls)
}

func TestRegisterCollectsEveryFieldRejection(t *testing.T) {
	f := newRegisterFixture()
	f.lookup.emails["taken@example.com"] = true
	svc := f.service(t)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username:        "log-in",
		Email:           "Taken@example.com",
		Password:        "one",
		ConfirmPassword: "two",
	})
	require.Error(t, err)

	fields, ok := Rejections(err)
	require.True(t, ok)
	require.True(t, fields.Has(FieldUsername, ReasonInvalidCharacters))
	require.True(t, fields.Has(FieldEmail, ReasonDuplicateEmail))
	require.True(t, fields.Has(FieldPassword, ReasonPasswordMismatch))

	details, ok := pkgerrors.As(err).Details().(RejectionDetails)
	require.True(t, ok)
	require.Equal(t, "log-in", details.Input[FieldUsername])
	require.Equal(t, "taken@example.com", details.Input[FieldEmail])
	require.NotContains(t, details.Input, FieldPassword)
}

func TestRegisterRequiredAndLengthChecks(t *testing.T) {
	f := newRegisterFixture()
	svc := f.service(t)

	_, err := svc.Register(context.Background(), RegisterRequest{})
	fields, ok := Rejections(err)
	require.True(t, ok)
	for _, field := range []string{FieldUsername, FieldEmail, FieldPassword, FieldConfirmPassword} {
		require.True(t, fields.Has(field, ReasonMissingRequiredField), field)
	}

	req := validRequest()
	req.Username = "abcdefghijklmnopqrstuvwxyz0123456"
	_, err = svc.Register(context.Background(), req)
	fields, ok = Rejections(err)
	require.True(t, ok)
	require.True(t, fields.Has(FieldUsername, ReasonTooLong))
	require.Zero(t, f.tx.calls)
}

func TestRegisterMapsStorageConflicts(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		field  string
		reason RejectionReason
	}{
		{"username", errors.Join(users.ErrDuplicateUsername, errors.New("UNIQUE constraint failed")), FieldUsername, ReasonDuplicateUsername},
		{"email", errors.Join(users.ErrDuplicateEmail, errors.New("UNIQUE constraint failed")), FieldEmail, ReasonDuplicateEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRegisterFixture()
			f.repo.createErr = tc.err
			svc := f.service(t)

			_, err := svc.Register(context.Background(), validRequest())
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

			fields, ok := Rejections(err)
			require.True(t, ok)
			require.True(t, fields.Has(tc.field, tc.reason))
			require.Equal(t, SourceStorage, fields[tc.field][0].Source)
			require.ErrorIs(t, err, tc.err)
			require.Empty(t, f.provisioner.calls)
		})
	}
}

func TestRegisterInternalFailures(t *testing.T) {
	f := newRegisterFixture()
	f.provisioner.err = errors.New("disk full")
	svc := f.service(t)

	_, err := svc.Register(context.Background(), validRequest())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
	_, ok := Rejections(err)
	require.False(t, ok)

	f = newRegisterFixture()
	f.lookup.err = errors.New("db down")
	svc = f.service(t)
	_, err = svc.Register(context.Background(), validRequest())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))

	f = newRegisterFixture()
	f.hasher.err = errors.New("rng failure")
	svc = f.service(t)
	_, err = svc.Register(context.Background(), validRequest())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
	require.Zero(t, f.tx.calls)
}

func TestCreatePrivilegedGrantsBothFlags(t *testing.T) {
	f := newRegisterFixture()
	svc, err := NewAdminRegisterService(f.params())
	require.NoError(t, err)

	user, err := svc.CreatePrivileged(context.Background(), AdminRegisterRequest{
		Username: "root2",
		Email:    "root2@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	require.True(t, user.IsAdmin)
	require.True(t, user.IsStaff)
	require.Equal(t, []uuid.UUID{user.ID}, f.repo.privileged)
	require.Equal(t, [2]bool{true, true}, f.repo.privilegeTo)
	require.Len(t, f.provisioner.calls, 1)
}

func TestCreatePrivilegedRunsCredentialChecks(t *testing.T) {
	f := newRegisterFixture()
	svc, err := NewAdminRegisterService(f.params())
	require.NoError(t, err)

	_, err = svc.CreatePrivileged(context.Background(), AdminRegisterRequest{
		Username: "Admin",
		Email:    "admin@example.com",
		Password: "hunter22",
	})
	fields, ok := Rejections(err)
	require.True(t, ok)
	require.True(t, fields.Has(FieldUsername, ReasonReservedName))
	require.Empty(t, f.repo.created)
}
