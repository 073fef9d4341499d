package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks every section and the cross-field rules.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (%s)", fe.Namespace(), fe.Tag(), fe.Param()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if _, err := c.Features.Params(); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	if _, err := c.Classifier.Model(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	return nil
}
