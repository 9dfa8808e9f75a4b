package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/shule-project/shule/core"
)

var (
	roleTag  = "role"
	roleText = "role must be either admin or student"

	// validationSentinels maps custom tags to the domain error reported when
	// the tag fails.
	validationSentinels = map[string]error{roleTag: ErrInvalidRole}
)

func init() {
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(roleTag, roleText)
}

// roleValidation checks that the provided role is one of AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}
