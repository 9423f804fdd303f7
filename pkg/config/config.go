package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/luckylittle/qbrecon/pkg/logger"
	"github.com/luckylittle/qbrecon/pkg/stringutils"
)

const (
	envPrefix         = "QBRECON__"
	defaultClientName = "default"
	defaultBatchSize  = 50
)

type CategoryConfig struct {
	Name     string   `koanf:"name" validate:"required"`
	Trackers []string `koanf:"trackers" validate:"required,min=1,dive,required"`
}

type Configuration struct {
	Clients                 map[string]map[string]interface{}
	Filters                 map[string]FilterConfiguration
	Categories              []CategoryConfig    `koanf:"-" validate:"dive"`
	MatchPolicy             string              `koanf:"match_policy" validate:"omitempty,oneof=substring host"`
	CreateMissingCategories bool                `koanf:"create_missing_categories"`
	Workers                 int                 `koanf:"workers" validate:"gte=0"`
	RateLimit               int                 `koanf:"rate_limit" validate:"gte=0"`
	BatchSize               int                 `koanf:"batch_size" validate:"gte=0"`
	Notifications           NotificationsConfig `koanf:"notifications"`
}

/* Vars */

var (
	cfgPath = ""

	Delimiter = "."
	Config    *Configuration
	K         = koanf.New(Delimiter)

	// Internal
	log = logger.GetLogger("cfg")
)

/* Public */

func Init(configFilePath string) error {
	// set package variables
	cfgPath = configFilePath
	K = koanf.New(Delimiter)

	// load config
	if err := K.Load(file.Provider(configFilePath), parserFor(configFilePath)); err != nil {
		return fmt.Errorf("load file: %w", err)
	}

	// load environment variables
	if err := K.Load(env.Provider(envPrefix, Delimiter, func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "__", Delimiter, -1)
	}), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	// single client layout: url/username/password at the top level
	if !K.Exists("clients") && K.String("url") != "" {
		log.Debugf("No clients configured, using top-level url as client %q", defaultClientName)
		if err := K.Load(confmap.Provider(map[string]interface{}{
			"clients.default.enabled":  true,
			"clients.default.type":     "qbittorrent",
			"clients.default.url":      K.String("url"),
			"clients.default.user":     K.String("username"),
			"clients.default.password": K.String("password"),
		}, Delimiter), nil); err != nil {
			return fmt.Errorf("load top-level client: %w", err)
		}
	}

	// unmarshal config
	Config = new(Configuration)
	if err := K.Unmarshal("", Config); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	categories, err := parseCategories(K.Get("categories"), categoryOrder(configFilePath))
	if err != nil {
		return fmt.Errorf("parse categories: %w", err)
	}
	Config.Categories = categories

	if Config.BatchSize == 0 {
		Config.BatchSize = defaultBatchSize
	}

	if err := ValidateStruct(Config); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	log.Debugf("Loaded %d clients, %d categories, %d filters", len(Config.Clients), len(Config.Categories),
		len(Config.Filters))
	return nil
}

func ShowUsing() {
	log.Infof("Using %s = %q", stringutils.LeftJust("CONFIG", " ", 10), cfgPath)
}

/* Private */

func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Parser()
	}

	return yaml.Parser()
}

// parseCategories accepts either an ordered list of {name, trackers} entries, or
// a mapping of category name to tracker domains. Mapping entries keep the order
// they have in the config file; names the file does not list (env overrides)
// follow alphabetically.
func parseCategories(raw interface{}, order []string) ([]CategoryConfig, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil

	case []interface{}:
		categories := make([]CategoryConfig, 0, len(v))
		for i, item := range v {
			entry, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("category %d: expected mapping, got %T", i, item)
			}

			name, _ := entry["name"].(string)
			trackers, err := toStrings(entry["trackers"])
			if err != nil {
				return nil, fmt.Errorf("category %q: %w", name, err)
			}

			categories = append(categories, CategoryConfig{Name: name, Trackers: trackers})
		}
		return categories, nil

	case map[string]interface{}:
		names := make([]string, 0, len(v))
		listed := make(map[string]bool, len(order))
		for _, name := range order {
			if _, ok := v[name]; ok && !listed[name] {
				names = append(names, name)
				listed[name] = true
			}
		}

		var rest []string
		for name := range v {
			if !listed[name] {
				rest = append(rest, name)
			}
		}
		if len(rest) > 0 {
			sort.Strings(rest)
			log.Warnf("Categories %v have no position in the config file and are applied last in alphabetical "+
				"order, use the list form (- name: ..., trackers: [...]) to control rule order", rest)
			names = append(names, rest...)
		}

		categories := make([]CategoryConfig, 0, len(v))
		for _, name := range names {
			trackers, err := toStrings(v[name])
			if err != nil {
				return nil, fmt.Errorf("category %q: %w", name, err)
			}

			categories = append(categories, CategoryConfig{Name: name, Trackers: trackers})
		}
		return categories, nil
	}

	return nil, fmt.Errorf("unsupported categories type: %T", raw)
}

// categoryOrder returns the keys of a categories mapping in the order they are
// written in the config file. JSON parses as YAML, so both formats are read with
// the YAML node API. It returns nil when categories is not a mapping.
func categoryOrder(path string) []string {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var doc struct {
		Categories yamlv3.Node `yaml:"categories"`
	}
	if err := yamlv3.Unmarshal(b, &doc); err != nil {
		log.WithError(err).Debug("Failed reading categories order")
		return nil
	}

	if doc.Categories.Kind != yamlv3.MappingNode {
		return nil
	}

	keys := make([]string, 0, len(doc.Categories.Content)/2)
	for i := 0; i+1 < len(doc.Categories.Content); i += 2 {
		keys = append(keys, doc.Categories.Content[i].Value)
	}
	return keys
}

func toStrings(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case string:
		return []string{v}, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string tracker, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}

	return nil, fmt.Errorf("expected list of trackers, got %T", raw)
}
