package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that cannot
// be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// A memory queue only delivers to consumers in the same process: a
	// server configured that way with the worker disabled would queue
	// thumbnail jobs nobody can consume.
	if cfg.Queue.Type == "memory" && !cfg.Worker.Enabled {
		return fmt.Errorf("queue: memory queue requires worker.enabled (jobs would never be consumed)")
	}

	// Durable backends sharing one Badger directory would contend for the
	// same lock at open time.
	paths := make(map[string]string)
	for _, section := range []struct {
		name     string
		selected string
		settings map[string]any
	}{
		{"metadata", cfg.Metadata.Type, cfg.Metadata.Badger},
		{"sessions", cfg.Sessions.Type, cfg.Sessions.Badger},
		{"queue", cfg.Queue.Type, cfg.Queue.Badger},
	} {
		if section.selected != "badger" {
			continue
		}
		path, _ := section.settings["db_path"].(string)
		if path == "" {
			return fmt.Errorf("%s: badger db_path is required", section.name)
		}
		if other, ok := paths[path]; ok {
			return fmt.Errorf("%s: badger db_path %q already used by %s", section.name, path, other)
		}
		paths[path] = section.name
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
