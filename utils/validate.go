package utils

import (
	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance. Request structs declare a fixed
// field set; anything outside it is rejected at the handler boundary.
var Validate = validator.New(validator.WithRequiredStructEnabled())
