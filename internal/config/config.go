// Package config loads and validates the three JSON configuration files a
// study run binds together: the dataset, the model, and the study itself.
// Loading is fail-fast; unknown keys are reported as warnings and ignored.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"mlstudy/internal"
	apperrors "mlstudy/internal/errors"
)

// readSections reads a JSON object file into raw sections keyed by field
// name, so loaders can consume the keys they know and report the remainder.
func readSections(path string) (map[string]json.RawMessage, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, "reading config file %s", path)
	}
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(buf, &sections); err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid,
			fmt.Errorf("config file %s must contain a JSON object: %w", path, err))
	}
	return sections, nil
}

// take decodes and removes one key from the sections map. Missing keys leave
// dst untouched and return false.
func take(sections map[string]json.RawMessage, key string, dst any) (bool, error) {
	raw, ok := sections[key]
	if !ok {
		return false, nil
	}
	delete(sections, key)
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, apperrors.WithCode(apperrors.CodeConfigInvalid,
			fmt.Errorf("entry %q is malformed: %w", key, err))
	}
	return true, nil
}

// requireString decodes a mandatory non-empty string entry.
func requireString(sections map[string]json.RawMessage, key, path string) (string, error) {
	var s string
	ok, err := take(sections, key, &s)
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		return "", apperrors.ConfigInvalid(fmt.Sprintf("%s: required entry %q is missing or empty", path, key))
	}
	return s, nil
}

// reportRemaining warns about entries no loader consumed.
func reportRemaining(sections map[string]json.RawMessage, path string, logger *internal.Logger) {
	if len(sections) == 0 {
		return
	}
	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		logger.Warn("entry %q in %s is not a valid configuration option and was ignored", k, path)
	}
}
