package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// SiteAlias is replaced by the resolved site.path in directory values.
const SiteAlias = "@site"

// pathKeys lists the directory-valued keys that are resolved against site.path.
var pathKeys = []string{
	"pages.path",
	"posts.path",
	"plugins.path",
	"layouts.path",
	"data.path",
	"translations.path",
	"twig.extend.functions",
	"twig.extend.filters",
	"twig.extend.tests",
	"twig.cache",
	"build.output",
}

// Load reads a YAML configuration file, applies defaults and resolves
// directory values relative to the site directory.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve config path").
			WithContext("path", path).Build()
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", absPath).WithCause(err).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read config file").
			WithContext("path", absPath).Build()
	}

	configDir := filepath.Dir(absPath)
	if err := loadEnvFile(configDir); err != nil {
		return nil, err
	}

	cfg, err := Parse(data, configDir)
	if err != nil {
		return nil, err
	}
	cfg.file = absPath
	return cfg, nil
}

// Parse decodes YAML bytes into a Config. baseDir anchors a relative
// site.path; an empty baseDir uses the working directory.
func Parse(data []byte, baseDir string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	raw := map[string]any{}
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Build()
	}

	values := merge(Defaults(), normalizeMap(raw))
	if err := resolvePaths(values, baseDir); err != nil {
		return nil, err
	}
	if err := validate(values); err != nil {
		return nil, err
	}
	return &Config{values: values}, nil
}

func resolvePaths(values map[string]any, baseDir string) error {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve working directory").Build()
		}
		baseDir = wd
	}

	tree := &Config{values: values}
	site := strings.TrimSpace(tree.GetString("site.path"))
	switch {
	case site == "":
		site = baseDir
	case !filepath.IsAbs(site):
		site = filepath.Join(baseDir, site)
	}
	site = filepath.Clean(site)
	setPath(values, "site.path", site)

	for _, key := range pathKeys {
		raw, ok := tree.Get(key).(string)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, err := strconv.ParseBool(raw); err == nil {
			continue
		}
		if strings.HasPrefix(raw, SiteAlias) {
			raw = site + strings.TrimPrefix(raw, SiteAlias)
		}
		if !filepath.IsAbs(raw) {
			raw = filepath.Join(site, raw)
		}
		setPath(values, key, filepath.Clean(raw))
	}
	return nil
}

func validate(values map[string]any) error {
	tree := &Config{values: values}
	if level := tree.GetString("logging.level"); level != "" {
		if _, err := logLevelNormalizer.NormalizeWithError(level); err != nil {
			return ferrors.ConfigError("invalid logging.level").WithCause(err).Build()
		}
	}
	if format := tree.GetString("logging.format"); format != "" {
		if _, err := logFormatNormalizer.NormalizeWithError(format); err != nil {
			return ferrors.ConfigError("invalid logging.format").WithCause(err).Build()
		}
	}
	return nil
}

func setPath(values map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	current := values
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
