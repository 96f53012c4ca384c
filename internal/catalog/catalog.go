// Package catalog holds the static set of generation requests a batch run
// processes, either the built-in list or one loaded from a YAML file.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"assetgen/internal/domain"
)

var assetIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(/[A-Za-z0-9_-]+)*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("assetid", func(fl validator.FieldLevel) bool {
		return assetIDPattern.MatchString(fl.Field().String())
	})
	return v
}

type file struct {
	Assets []domain.JobSpec `yaml:"assets"`
}

// Load returns the catalog stored at path, or the built-in catalog when path is
// empty. The result is validated before it is returned.
func Load(path string) ([]domain.JobSpec, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		specs := Builtin()
		return specs, Validate(specs)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog document and validates it.
func Parse(raw []byte) ([]domain.JobSpec, error) {
	var doc file
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	for i := range doc.Assets {
		doc.Assets[i].AssetID = strings.TrimSpace(doc.Assets[i].AssetID)
		doc.Assets[i].Prompt = strings.TrimSpace(doc.Assets[i].Prompt)
		doc.Assets[i].Style = domain.Style(strings.ToLower(strings.TrimSpace(string(doc.Assets[i].Style))))
	}
	if err := Validate(doc.Assets); err != nil {
		return nil, err
	}
	return doc.Assets, nil
}

// Validate checks every entry and rejects duplicate asset identifiers.
func Validate(specs []domain.JobSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("%w: no assets", domain.ErrInvalidCatalog)
	}
	seen := make(map[string]struct{}, len(specs))
	var errs []error
	for i, spec := range specs {
		if err := validate.Struct(spec); err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%q): %w", i, spec.AssetID, err))
			continue
		}
		key := strings.ToLower(spec.AssetID)
		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("entry %d: duplicate asset id %q", i, spec.AssetID))
			continue
		}
		seen[key] = struct{}{}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidCatalog, errors.Join(errs...))
	}
	return nil
}
