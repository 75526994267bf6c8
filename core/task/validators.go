package task

import (
	"github.com/go-playground/validator/v10"

	"github.com/fitdeskhq/fitdesk/core"
)

var (
	statusTag  = "taskstatus"
	statusText = "invalid task status"
)

func init() {
	_ = core.Validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(statusTag, statusText)
}

func statusValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, s := range AllStatuses {
		if val == s {
			return true
		}
	}
	return false
}
