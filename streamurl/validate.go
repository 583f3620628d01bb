package streamurl

import (
	"strings"
)

// Validation messages, in the order rules are evaluated.
const (
	MsgDomainRequired     = "domain must not be empty"
	MsgAppNameRequired    = "app name must not be empty"
	MsgStreamNameRequired = "stream name must not be empty"
	MsgAuthPairing        = "key and expiry must be set together or both empty"
	MsgExpiryFormat       = "expiry time must use the format YYYY-MM-DD HH:MM:SS"
	MsgExpiryInvalid      = "expiry time is not a valid calendar time"
	MsgExpiryPast         = "expiry time must be later than the current time"
	MsgAlgorithm          = "digest algorithm must be MD5 or SHA256"
)

// ValidationResult lists every rule a Config violates. Errors is never nil.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidationError is returned by GenerateAll for an invalid Config.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidConfig.Error() + ": " + strings.Join(e.Messages, "; ")
}

// Is makes errors.Is(err, ErrInvalidConfig) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Validate never fails: all applicable rules are evaluated and every
// violation is reported.
func (g *Generator) Validate(cfg Config) ValidationResult {
	errs := []string{}

	if strings.TrimSpace(cfg.Domain) == "" {
		errs = append(errs, MsgDomainRequired)
	}
	if strings.TrimSpace(cfg.AppName) == "" {
		errs = append(errs, MsgAppNameRequired)
	}
	if strings.TrimSpace(cfg.StreamName) == "" {
		errs = append(errs, MsgStreamNameRequired)
	}

	if (cfg.SecretKey != "") != (cfg.ExpireAt != "") {
		errs = append(errs, MsgAuthPairing)
	}

	if cfg.ExpireAt != "" {
		switch {
		case !expiryPattern.MatchString(cfg.ExpireAt):
			errs = append(errs, MsgExpiryFormat)
		default:
			t, err := ParseExpiry(cfg.ExpireAt)
			switch {
			case err != nil:
				errs = append(errs, MsgExpiryInvalid)
			case !t.After(g.now()):
				errs = append(errs, MsgExpiryPast)
			}
		}
	}

	if !cfg.Algorithm.valid() {
		errs = append(errs, MsgAlgorithm)
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
