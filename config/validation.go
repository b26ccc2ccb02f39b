package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report koanf key paths rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks cfg against its struct tags and returns the first failure
// as a *ConfigError.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		if terr := cfg.Telemetry.Validate(); terr != nil {
			return NewInvalidFieldError("telemetry", terr.Error(), nil)
		}
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := keyPath(fe.Namespace())
	if fe.Tag() == "required" {
		return NewMissingFieldError(field, envVarFor(field), field)
	}
	return NewInvalidFieldError(field, invalidMessage(fe), oneOfOptions(fe))
}

// RequireOAuth reports the partner credentials the OAuth flow cannot run
// without.
func (c *Config) RequireOAuth() error {
	if c.OAuth.ConsumerKey == "" {
		return NewMissingFieldError("oauth.consumerkey", envVarFor("oauth.consumerkey"), "oauth.consumerkey")
	}
	if c.OAuth.ConsumerSecret == "" {
		return NewMissingFieldError("oauth.consumersecret", envVarFor("oauth.consumersecret"), "oauth.consumersecret")
	}
	return nil
}

// keyPath drops the root struct name from a validator namespace.
func keyPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func envVarFor(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func invalidMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "url":
		return fmt.Sprintf("%q is not a valid url", fe.Value())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("invalid value %q", fe.Value())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func oneOfOptions(fe validator.FieldError) []string {
	if fe.Tag() != "oneof" {
		return nil
	}
	return strings.Fields(fe.Param())
}
