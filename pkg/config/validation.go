package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags plus custom rules
// that cannot be expressed in tags.
//
// Level normalization happens in ApplyDefaults; validation accepts both
// cases.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The base address must be an absolute http(s) URL; endswith=/ is
	// already covered by the tag
	base := cfg.Mapping.BaseAddress
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return fmt.Errorf("mapping.base_address: %q must be an absolute http or https URL", base)
	}

	// Suffixes may not contain a path separator; they name file endings,
	// not directories
	if strings.Contains(cfg.Mapping.PathSuffix, "/") {
		return fmt.Errorf("mapping.path_suffix: %q must not contain /", cfg.Mapping.PathSuffix)
	}
	if strings.Contains(cfg.Mapping.URLSuffix, "/") {
		return fmt.Errorf("mapping.url_suffix: %q must not contain /", cfg.Mapping.URLSuffix)
	}

	// Duplicate content types make type resolution ambiguous
	seen := make(map[string]bool)
	for i, contentType := range cfg.Mapping.ContentTypes {
		if seen[contentType] {
			return fmt.Errorf("mapping.content_types[%d]: duplicate content type %q", i, contentType)
		}
		seen[contentType] = true
	}

	if cfg.Server.RateLimit > 0 && cfg.Server.Burst == 0 {
		return fmt.Errorf("server.burst: must be set when server.rate_limit is enabled")
	}

	return nil
}

// formatValidationError converts validator errors into user-facing messages.
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
