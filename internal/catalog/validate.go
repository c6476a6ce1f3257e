package catalog

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateModules performs field and structural checks on a module set.
// Returns a combined error describing all problems found, or nil if valid.
func validateModules(modules []Module) error {
	var errs []string

	if len(modules) == 0 {
		return fmt.Errorf("catalog validation failed: no modules")
	}

	idSet := make(map[string]bool, len(modules))
	catSet := make(map[Category]bool)

	for _, m := range modules {
		if err := validate.Struct(m); err != nil {
			errs = append(errs, fmt.Sprintf("module %q: %v", m.ID, err))
			continue
		}
		if want := ModuleID(m.Group, m.Sequence); m.ID != want {
			errs = append(errs, fmt.Sprintf("module %q: id must be %q", m.ID, want))
		}
		if idSet[m.ID] {
			errs = append(errs, fmt.Sprintf("duplicate module ID: %q", m.ID))
		}
		idSet[m.ID] = true
		catSet[m.Category] = true
	}

	for _, cat := range Categories {
		if !catSet[cat] {
			errs = append(errs, fmt.Sprintf("no %s modules", cat))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
