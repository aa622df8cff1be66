package forward

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

/* Destination is an outbound webhook the normalized event is relayed to
 * Uses value semantics as it represents configuration data
 */
type Destination struct {
	Name   string `validate:"required"`
	URL    string `validate:"required,url"`
	Format Format
	Role   Role
}

// NewDestination builds a destination, detecting the format from the URL when none is given
func NewDestination(name, rawURL string, format Format, role Role) (Destination, error) {
	if format == 0 {
		format = DetectFormat(rawURL)
	}
	if role == 0 {
		role = Primary
	}
	d := Destination{
		Name:   name,
		URL:    rawURL,
		Format: format,
		Role:   role,
	}
	if err := d.Validate(); err != nil {
		return Destination{}, err
	}
	return d, nil
}

// Validate checks if the destination configuration is valid
func (d Destination) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("validating destination %q: %w", d.Name, err)
	}
	if err := d.Format.Validate(); err != nil {
		return fmt.Errorf("invalid format for destination %s: %w", d.Name, err)
	}
	return nil
}
