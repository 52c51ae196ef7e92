package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/askbox-backend/pkg/config"
	"github.com/go-playground/validator/v10"
)

// RejectionReason names why a registration field was refused.
type RejectionReason string

const (
	ReasonReservedName               RejectionReason = "RESERVED_NAME"
	ReasonInvalidCharacters          RejectionReason = "INVALID_CHARACTERS"
	ReasonDuplicateUsername          RejectionReason = "DUPLICATE_USERNAME"
	ReasonDuplicateEmail             RejectionReason = "DUPLICATE_EMAIL"
	ReasonInvalidFormat              RejectionReason = "INVALID_FORMAT"
	ReasonPasswordMismatch           RejectionReason = "PASSWORD_MISMATCH"
	ReasonMissingRequiredField       RejectionReason = "MISSING_REQUIRED_FIELD"
	ReasonTooLong                    RejectionReason = "TOO_LONG"
	ReasonStorageConstraintViolation RejectionReason = "STORAGE_CONSTRAINT_VIOLATION"
)

// Rejection sources. A storage rejection means the unique index refused a
// write that had passed the advisory checks.
const (
	SourceValidation = "validation"
	SourceStorage    = string(ReasonStorageConstraintViolation)
)

const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
)

// Rejection is a single field-level problem surfaced to the caller.
type Rejection struct {
	Reason  RejectionReason `json:"code"`
	Message string          `json:"message"`
	Source  string          `json:"source,omitempty"`
}

func reject(reason RejectionReason, message string) Rejection {
	return Rejection{Reason: reason, Message: message, Source: SourceValidation}
}

// FieldRejections groups every rejection by the field it applies to.
type FieldRejections map[string][]Rejection

func (f FieldRejections) Add(field string, rejections ...Rejection) {
	if len(rejections) == 0 {
		return
	}
	f[field] = append(f[field], rejections...)
}

func (f FieldRejections) Empty() bool {
	return len(f) == 0
}

// Has reports whether field carries a rejection with reason.
func (f FieldRejections) Has(field string, reason RejectionReason) bool {
	for _, r := range f[field] {
		if r.Reason == reason {
			return true
		}
	}
	return false
}

// RejectionDetails is the payload attached to a registration VALIDATION_ERROR.
// Input echoes the submitted username and email so the form can be redisplayed;
// password fields are never included.
type RejectionDetails struct {
	Fields FieldRejections   `json:"fields"`
	Input  map[string]string `json:"input,omitempty"`
}

var defaultReservedUsernames = []string{
	"about", "account", "activity", "admin", "administrator", "articles",
	"authentication", "billing", "blog", "blogs", "campaign", "contact",
	"contribute", "cookie", "css", "delete", "download", "downloads", "edit",
	"email", ".env", "explore", "faq", "feed", "feeds", "follow", "forum",
	"forums", "help", "home", "intranet", "job", "jobs", "join", "js", "log",
	"login", "logout", "mail", "media", "network", "new", "news", "newsletter",
	"privacy", "profile", "questions", "register", "registration", "remove",
	"review", "reviews", "root", "rss", "search", "setting", "settings", "shop",
	"signin", "signout", "signup", "static", "status", "subscribe", "support",
	"terms", "username", "users",
}

// DefaultReservedUsernames returns a copy of the built-in reserved name list.
func DefaultReservedUsernames() []string {
	return append([]string(nil), defaultReservedUsernames...)
}

// CredentialPolicy is the data the username checks run against.
type CredentialPolicy struct {
	reserved  map[string]struct{}
	forbidden string
}

// NewCredentialPolicy builds a policy from a reserved-name list and the set of
// characters a username must not contain. Names are matched case-insensitively.
func NewCredentialPolicy(reserved []string, forbiddenChars string) CredentialPolicy {
	set := make(map[string]struct{}, len(reserved))
	for _, name := range reserved {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return CredentialPolicy{reserved: set, forbidden: forbiddenChars}
}

// PolicyFromConfig combines the built-in reserved names with any configured extras.
func PolicyFromConfig(cfg config.AccountsConfig) CredentialPolicy {
	reserved := append(DefaultReservedUsernames(), cfg.ExtraReservedUsernames...)
	return NewCredentialPolicy(reserved, cfg.ForbiddenUsernameChars)
}

// DefaultCredentialPolicy is the policy used when nothing is configured.
func DefaultCredentialPolicy() CredentialPolicy {
	return NewCredentialPolicy(defaultReservedUsernames, "@+-")
}

func (p CredentialPolicy) IsReserved(username string) bool {
	_, ok := p.reserved[strings.ToLower(username)]
	return ok
}

func (p CredentialPolicy) HasForbiddenChars(username string) bool {
	return p.forbidden != "" && strings.ContainsAny(username, p.forbidden)
}

// ReservedNames lists the reserved names in sorted order.
func (p CredentialPolicy) ReservedNames() []string {
	out := make([]string, 0, len(p.reserved))
	for name := range p.reserved {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type identityLookup interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// CredentialValidator runs the per-field registration checks. The uniqueness
// checks read current state and are advisory; the unique indexes decide races.
type CredentialValidator struct {
	policy   CredentialPolicy
	lookup   identityLookup
	validate *validator.Validate
}

func NewCredentialValidator(policy CredentialPolicy, lookup identityLookup) *CredentialValidator {
	return &CredentialValidator{
		policy:   policy,
		lookup:   lookup,
		validate: validator.New(),
	}
}

// ValidateUsername returns every rejection that applies to candidate. An error
// is returned only when the identity store could not be read.
func (v *CredentialValidator) ValidateUsername(ctx context.Context, candidate string) ([]Rejection, error) {
	var out []Rejection
	if v.policy.IsReserved(candidate) {
		out = append(out, reject(ReasonReservedName, "This is a reserved username."))
	}
	if v.policy.HasForbiddenChars(candidate) {
		out = append(out, reject(ReasonInvalidCharacters, "Enter a valid username."))
	}
	if v.lookup != nil {
		taken, err := v.lookup.UsernameExists(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			out = append(out, reject(ReasonDuplicateUsername, "User with this username already exists."))
		}
	}
	return out, nil
}

// ValidateEmail checks syntax and advisory uniqueness. Uniqueness is only
// checked for syntactically valid addresses.
func (v *CredentialValidator) ValidateEmail(ctx context.Context, candidate string) ([]Rejection, error) {
	if err := v.validate.Var(candidate, "required,email"); err != nil {
		return []Rejection{reject(ReasonInvalidFormat, "Enter a valid email address.")}, nil
	}
	if v.lookup == nil {
		return nil, nil
	}
	taken, err := v.lookup.EmailExists(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return []Rejection{reject(ReasonDuplicateEmail, "User with this email already exists.")}, nil
	}
	return nil, nil
}

// ValidatePasswordConfirmation compares the two passwords byte for byte. When
// either side is empty the required-field check owns the error.
func ValidatePasswordConfirmation(password, confirm string) *Rejection {
	if password == "" || confirm == "" {
		return nil
	}
	if password != confirm {
		r := reject(ReasonPasswordMismatch, "Passwords don't match.")
		return &r
	}
	return nil
}
