package notification

import (
	"github.com/go-playground/validator/v10"

	"github.com/fitdeskhq/fitdesk/core"
)

var (
	kindTag  = "notifkind"
	kindText = "invalid notification kind"
)

func init() {
	_ = core.Validate.RegisterValidation(kindTag, kindValidation)
	core.RegisterCustomTranslation(kindTag, kindText)
}

func kindValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, k := range AllKinds {
		if val == k {
			return true
		}
	}
	return false
}
