package tripapi

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// schema validates decoded responses against their struct tags so that a
// malformed body fails at the boundary instead of deep inside a flow.
type schema struct {
	validate *validator.Validate
}

func newSchema() *schema {
	return &schema{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (s *schema) check(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if err := s.validate.Struct(rv.Interface()); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := s.check(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}
