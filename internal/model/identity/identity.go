package identity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	return v
}

// Identity is the logged-in user as seen by the chat subsystem.
type Identity struct {
	Name  string
	Phone string `validate:"required,mobile"`
	Role  Role   `validate:"required,oneof=farmer vendor"`
}

// Validate checks the phone number format and the role.
func (i Identity) Validate() error {
	if err := validate.Struct(i); err != nil {
		return fmt.Errorf("invalid identity: %w", err)
	}
	return nil
}

// Profile is the user profile blob persisted by the onboarding screens.
type Profile struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,mobile"`
	UserType string `json:"userType" validate:"required"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Pincode  string `json:"pincode,omitempty" validate:"omitempty,numeric,len=6"`
	District string `json:"district,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Validate checks the profile fields the chat client depends on.
func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	if _, err := NormalizeRole(p.UserType); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	return nil
}

// Identity resolves the profile into an Identity. phone overrides the
// profile's own phone field when it is set.
func (p Profile) Identity(phone string) (Identity, error) {
	role, err := NormalizeRole(p.UserType)
	if err != nil {
		return Identity{}, err
	}

	phone = strings.TrimSpace(phone)
	if phone == "" {
		phone = strings.TrimSpace(p.Phone)
	}

	id := Identity{Name: strings.TrimSpace(p.Name), Phone: phone, Role: role}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}
