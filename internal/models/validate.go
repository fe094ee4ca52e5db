package models

import "github.com/go-playground/validator/v10"

// validate is shared by every model with struct tags
var validate = validator.New(validator.WithRequiredStructEnabled())
