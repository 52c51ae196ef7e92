package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/askbox-backend/internal/users"
	"github.com/angelmondragon/askbox-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/askbox-backend/pkg/errors"
	"github.com/angelmondragon/askbox-backend/pkg/logger"
	"github.com/angelmondragon/askbox-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// MaxUsernameLength and MaxEmailLength are the limits accepted from clients.
	MaxUsernameLength = 32
	MaxEmailLength    = 75
)

// RegisterRequest is the sign-up submission. Presence and length are checked
// by the workflow so every problem lands in the same rejection payload.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// RegisterService handles the sign-up transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// UserWriter is the transactional write side of the user repository.
type UserWriter interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	SetPrivileges(ctx context.Context, id uuid.UUID, isAdmin, isStaff bool) error
}

// ProfileProvisioner creates the default profile for a new identity.
type ProfileProvisioner interface {
	Provision(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
// Lookup serves the advisory uniqueness reads; the factories bind the write
// repositories to the registration transaction.
type RegisterServiceParams struct {
	TxRunner                  txRunner
	Lookup                    identityLookup
	UserRepoFactory           func(tx *gorm.DB) UserWriter
	ProfileProvisionerFactory func(tx *gorm.DB) ProfileProvisioner
	Hasher                    passwordHasher
	Policy                    CredentialPolicy
	Metrics                   *metrics.AccountMetrics
	Logger                    *logger.Logger
}

type registerService struct {
	tx          txRunner
	validator   *CredentialValidator
	userRepo    func(tx *gorm.DB) UserWriter
	provisioner func(tx *gorm.DB) ProfileProvisioner
	hasher      passwordHasher
	metrics     *metrics.AccountMetrics
	logg        *logger.Logger
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	return newRegisterService(params)
}

func newRegisterService(params RegisterServiceParams) (*registerService, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Lookup == nil {
		return nil, fmt.Errorf("identity lookup is required")
	}
	if params.UserRepoFactory == nil {
		return nil, fmt.Errorf("user repository factory is required")
	}
	if params.ProfileProvisionerFactory == nil {
		return nil, fmt.Errorf("profile provisioner factory is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	policy := params.Policy
	if policy.reserved == nil {
		policy = DefaultCredentialPolicy()
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &registerService{
		tx:          params.TxRunner,
		validator:   NewCredentialValidator(policy, params.Lookup),
		userRepo:    params.UserRepoFactory,
		provisioner: params.ProfileProvisionerFactory,
		hasher:      params.Hasher,
		metrics:     params.Metrics,
		logg:        logg,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	return s.register(ctx, req, false)
}

func (s *registerService) register(ctx context.Context, req RegisterRequest, privileged bool) (*users.UserDTO, error) {
	started := time.Now()
	kind := metrics.KindMember
	if privileged {
		kind = metrics.KindPrivileged
	}

	username := strings.TrimSpace(req.Username)
	// Emails are stored folded; sqlite's lower() behind ux_users_email_lower is ASCII only.
	email := strings.ToLower(strings.TrimSpace(req.Email))
	input := map[string]string{FieldUsername: username, FieldEmail: email}

	fields, err := s.validate(ctx, username, email, req.Password, req.ConfirmPassword)
	if err != nil {
		s.metrics.ObserveRegistration(kind, metrics.OutcomeError, time.Since(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validate registration")
	}
	if !fields.Empty() {
		s.recordRejection(ctx, kind, fields, started)
		return nil, rejectionError(fields, input, nil)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.metrics.ObserveRegistration(kind, metrics.OutcomeError, time.Since(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := s.userRepo(tx).Create(ctx, users.CreateUserDTO{
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
		})
		if err != nil {
			return err
		}

		if _, err := s.provisioner(tx).Provision(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provision profile")
		}

		if privileged {
			if err := s.userRepo(tx).SetPrivileges(ctx, user.ID, true, true); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "grant privileges")
			}
			user.IsAdmin = true
			user.IsStaff = true
		}

		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		if conflict := storageConflict(err); conflict != nil {
			s.recordRejection(ctx, kind, conflict, started)
			return nil, rejectionError(conflict, input, err)
		}
		s.metrics.ObserveRegistration(kind, metrics.OutcomeError, time.Since(started))
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	s.metrics.ObserveRegistration(kind, metrics.OutcomeCreated, time.Since(started))
	logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": created.ID.String(), "kind": kind})
	s.logg.Info(logCtx, "auth.register.created")
	return created, nil
}

// validate runs the required, length and credential checks, collecting every
// rejection rather than stopping at the first.
func (s *registerService) validate(ctx context.Context, username, email, password, confirm string) (FieldRejections, error) {
	fields := FieldRejections{}
	required := reject(ReasonMissingRequiredField, "This field is required.")

	switch {
	case username == "":
		fields.Add(FieldUsername, required)
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		fields.Add(FieldUsername, tooLong(MaxUsernameLength))
	default:
		rejections, err := s.validator.ValidateUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		fields.Add(FieldUsername, rejections...)
	}

	switch {
	case email == "":
		fields.Add(FieldEmail, required)
	case utf8.RuneCountInString(email) > MaxEmailLength:
		fields.Add(FieldEmail, tooLong(MaxEmailLength))
	default:
		rejections, err := s.validator.ValidateEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		fields.Add(FieldEmail, rejections...)
	}

	if password == "" {
		fields.Add(FieldPassword, required)
	}
	if confirm == "" {
		fields.Add(FieldConfirmPassword, required)
	}
	if mismatch := ValidatePasswordConfirmation(password, confirm); mismatch != nil {
		fields.Add(FieldPassword, *mismatch)
	}
	return fields, nil
}

func tooLong(limit int) Rejection {
	return reject(ReasonTooLong, fmt.Sprintf("Ensure this value has at most %d characters.", limit))
}

// storageConflict maps a unique-index failure from the write path onto the
// matching duplicate rejection.
func storageConflict(err error) FieldRejections {
	switch {
	case errors.Is(err, users.ErrDuplicateUsername):
		return FieldRejections{FieldUsername: {{
			Reason:  ReasonDuplicateUsername,
			Message: "User with this username already exists.",
			Source:  SourceStorage,
		}}}
	case errors.Is(err, users.ErrDuplicateEmail):
		return FieldRejections{FieldEmail: {{
			Reason:  ReasonDuplicateEmail,
			Message: "User with this email already exists.",
			Source:  SourceStorage,
		}}}
	default:
		return nil
	}
}

// rejectionError builds the VALIDATION_ERROR returned for any rejected
// registration; cause is kept for logs when a storage conflict triggered it.
func rejectionError(fields FieldRejections, input map[string]string, cause error) *pkgerrors.Error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, "registration rejected").WithDetails(RejectionDetails{
		Fields: fields,
		Input:  input,
	})
}

// Rejections extracts the field rejections from a registration error.
func Rejections(err error) (FieldRejections, bool) {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		return nil, false
	}
	details, ok := typed.Details().(RejectionDetails)
	if !ok {
		return nil, false
	}
	return details.Fields, true
}

func (s *registerService) recordRejection(ctx context.Context, kind string, fields FieldRejections, started time.Time) {
	s.metrics.ObserveRegistration(kind, metrics.OutcomeRejected, time.Since(started))
	reasons := make([]string, 0, len(fields))
	for field, rejections := range fields {
		for _, r := range rejections {
			s.metrics.IncRejection(field, string(r.Reason))
			reasons = append(reasons, field+":"+string(r.Reason))
		}
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"kind": kind, "rejections": reasons})
	s.logg.Info(logCtx, "auth.register.rejected")
}
