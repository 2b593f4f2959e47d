package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyCache   = "cache"
	keyLogging = "logging"
	keyMetrics = "metrics"
	keyOutput  = "output"
)

// ShallowMergeYAML loads a YAML file and merges its top-level sections onto target.
// A section present in the file is decoded over the target's current section, so keys
// the file omits keep their defaults. Unknown top-level keys are ignored.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, node := range overlay {
		if err = decodeSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// decodeSection decodes node onto the field of target named by key.
func decodeSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyCache:
		return node.Decode(&target.Cache)
	case keyLogging:
		return node.Decode(&target.Logging)
	case keyMetrics:
		return node.Decode(&target.Metrics)
	case keyOutput:
		return node.Decode(&target.Output)
	default:
		return nil
	}
}
