package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/galaplate/foundry/env"
	"gopkg.in/yaml.v3"
)

// Loader reads a directory of YAML files; each file becomes the top-level key
// named after it, so config/foundry.yaml is read as foundry.*.
type Loader struct {
	configPath string
}

func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

func (l *Loader) Load() (map[string]any, error) {
	config := make(map[string]any)

	files, err := os.ReadDir(l.configPath)
	if os.IsNotExist(err) {
		return config, fmt.Errorf("config directory does not exist: %s", l.configPath)
	}
	if err != nil {
		return config, fmt.Errorf("failed to read config directory: %w", err)
	}

	for _, file := range files {
		ext := filepath.Ext(file.Name())
		if file.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		filename := filepath.Join(l.configPath, file.Name())
		data, err := l.loadFile(filename)
		if err != nil {
			return config, fmt.Errorf("failed to load config file %s: %w", filename, err)
		}

		config[strings.TrimSuffix(file.Name(), ext)] = data
	}

	return config, nil
}

func (l *Loader) loadFile(filename string) (any, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var data any
	if err := yaml.Unmarshal([]byte(expandEnv(string(content))), &data); err != nil {
		return nil, err
	}

	return normalize(data), nil
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([^}]*))?\}`)

// expandEnv replaces ${NAME} and ${NAME:default}; an empty variable takes the
// default.
func expandEnv(content string) string {
	return envPlaceholder.ReplaceAllStringFunc(content, func(placeholder string) string {
		match := envPlaceholder.FindStringSubmatch(placeholder)
		if value := env.Get(match[1]); value != "" {
			return value
		}
		return match[2]
	})
}

// normalize turns the map[any]any nodes YAML may produce into map[string]any.
func normalize(data any) any {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			v[key] = normalize(val)
		}
		return v
	case map[any]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[fmt.Sprintf("%v", key)] = normalize(val)
		}
		return result
	case []any:
		for i, val := range v {
			v[i] = normalize(val)
		}
		return v
	default:
		return v
	}
}
