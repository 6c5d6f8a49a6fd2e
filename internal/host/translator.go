package host

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
)

// CatalogTranslator looks messages up in translations/<language>.yaml:
//
//	app:
//	  "Read more": "Weiterlesen"
//
// Unknown messages fall back to the message itself. Placeholders of the form
// {name} are replaced from params in both cases.
type CatalogTranslator struct {
	language string
	catalog  map[string]map[string]string
}

// NewCatalogTranslator loads the catalog for language from dir. A missing
// catalog is not an error; a malformed one is logged and ignored.
func NewCatalogTranslator(dir, language string, logger *slog.Logger) *CatalogTranslator {
	if logger == nil {
		logger = slog.Default()
	}
	t := &CatalogTranslator{language: language, catalog: map[string]map[string]string{}}
	if dir == "" || language == "" {
		return t
	}

	path := filepath.Join(dir, language+".yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Translation catalog unreadable", logfields.Path(path), logfields.Error(err))
		}
		return t
	}
	if err := yaml.Unmarshal(raw, &t.catalog); err != nil {
		logger.Warn("Translation catalog malformed", logfields.Path(path), logfields.Error(err))
		t.catalog = map[string]map[string]string{}
	}
	return t
}

func (t *CatalogTranslator) Language() string {
	return t.language
}

func (t *CatalogTranslator) Translate(category, message string, params map[string]any) string {
	out := message
	if msgs, ok := t.catalog[category]; ok {
		if translated, ok := msgs[message]; ok && translated != "" {
			out = translated
		}
	}
	for k, v := range params {
		out = strings.ReplaceAll(out, "{"+k+"}", fmt.Sprint(v))
	}
	return out
}
