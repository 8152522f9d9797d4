package account

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/pal/core"
)

// Roles
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

var (
	AllRoles    = []string{RoleStudent, RoleInstructor, RoleAdmin}
	SignupRoles = []string{RoleStudent, RoleInstructor}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Instructor", Value: RoleInstructor},
		{Name: "Admin", Value: RoleAdmin},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Address      string    `json:"address"`
	Role         string    `json:"role"`
	IsApproved   bool      `json:"is_approved"`
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    null.Time `json:"last_login"` // UTC
}

func (acc *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	acc.PasswordHash = hash
	return nil
}

func (acc *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(pwd))
}

// ApplyActivationRules runs before every save.
// Non-instructors are always approved and active; instructors are active only once approved.
func (acc *Account) ApplyActivationRules() {
	if acc.Role != RoleInstructor {
		acc.IsApproved = true
		acc.IsActive = true
	} else {
		acc.IsActive = acc.IsApproved
	}
}

func (acc Account) FullName() string {
	return core.CleanString(acc.FirstName + " " + acc.LastName)
}

func (acc Account) IsAdmin() bool {
	return acc.IsSuperuser || acc.Role == RoleAdmin
}

func (acc Account) IsInstructor() bool {
	return acc.Role == RoleInstructor
}

func (acc Account) IsStudent() bool {
	return acc.Role == RoleStudent
}

// NewAccount contains information needed to sign up.
type NewAccount struct {
	FirstName       string `json:"first_name" validate:"required,min=2"`
	LastName        string `json:"last_name" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,emailaddr"`
	Address         string `json:"address" validate:"required,min=2"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Role            string `json:"role" validate:"omitempty,signuprole"`
}

// UpdateAccount defines what information may be provided to modify an existing Account.
// Role and IsApproved can only be set by admins.
type UpdateAccount struct {
	FirstName       string `json:"first_name" validate:"omitempty,min=2"`
	LastName        string `json:"last_name" validate:"omitempty,min=2"`
	Address         string `json:"address" validate:"omitempty,min=2"`
	Role            string `json:"role" validate:"omitempty,oneof=student instructor admin"`
	IsApproved      *bool  `json:"is_approved"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// LoginRequest only checks that both credentials are present.
// Credentials are verified by Service.Authenticate.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,emailaddr"`
}

type ResetPassword struct {
	Token           string `json:"token" validate:"required"`
	UID             string `json:"uid" validate:"required"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type QueryFilter struct {
	Search     string   `query:"search"`
	Roles      []string `query:"role"`
	IsApproved *bool    `query:"is_approved"`
	IsActive   *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsApproved == nil && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
