package configflow

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"mpdhub/internal/models"
)

type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
)

// Field describes one input of the user form.
type Field struct {
	Key      string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Default  any       `json:"default,omitempty"`
}

type Schema []Field

// DataSchema is the form shown for the user step.
var DataSchema = Schema{
	{Key: "host", Type: FieldString, Required: true},
	{Key: "name", Type: FieldString, Default: models.DefaultName},
	{Key: "password", Type: FieldString},
	{Key: "port", Type: FieldInteger, Default: models.DefaultPort},
}

// ApplyDefaults fills fields the caller left empty with their schema default.
func (s Schema) ApplyDefaults(in models.ConnectionInput) models.ConnectionInput {
	for _, f := range s {
		switch f.Key {
		case "name":
			if in.Name == "" {
				if d, ok := f.Default.(string); ok {
					in.Name = d
				}
			}
		case "port":
			if in.Port == 0 {
				if d, ok := f.Default.(int); ok {
					in.Port = d
				}
			}
		}
	}
	return in
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks in against the struct tags of models.ConnectionInput and
// returns a field key to error code map, or nil when the input is valid.
func (s Schema) Validate(in models.ConnectionInput) map[string]string {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"base": ErrorUnknown}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field())] = ErrorInvalidInput
	}
	return out
}
