package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Container capability errors
	ErrCapability      = errors.New("container lacks required capability")
	ErrSingleFeature   = errors.New("container has a single feature")
	ErrFeatureNotFound = errors.New("feature not found")
	ErrFeatureMismatch = errors.New("feature names inconsistent with data shape")
	ErrEmptyContainer  = errors.New("container holds no samples")

	// Study flow errors
	ErrUnsupervised  = errors.New("unsupervised studies are not supported")
	ErrNotFitted     = errors.New("transform has not been fitted")
	ErrNotTuned      = errors.New("tunable hook was not tuned before use")
	ErrUnknownHook   = errors.New("no data hook registered under name")
	ErrUnknownFormat = errors.New("no data loader registered under format")
	ErrUnknownModel  = errors.New("no model registered under name")
	ErrUnknownMetric = errors.New("no metric registered under name")

	// Persistence errors
	ErrTableExists = errors.New("result table already exists")
)

// NewCapabilityError reports a hook applied to a container that cannot
// support it.
func NewCapabilityError(hook, capability string) error {
	return fmt.Errorf("%w: hook %q requires %s", ErrCapability, hook, capability)
}

// NewFeatureNotFoundError names the missing feature.
func NewFeatureNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrFeatureNotFound, name)
}

// Error checking helpers
func IsCapabilityError(err error) bool {
	return errors.Is(err, ErrCapability) || errors.Is(err, ErrSingleFeature)
}

func IsRegistryError(err error) bool {
	return errors.Is(err, ErrUnknownHook) ||
		errors.Is(err, ErrUnknownFormat) ||
		errors.Is(err, ErrUnknownModel) ||
		errors.Is(err, ErrUnknownMetric)
}
