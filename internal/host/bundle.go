package host

import (
	"log/slog"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
)

// Bundle is the default Services implementation assembled from configuration.
type Bundle struct {
	env        *Env
	urls       *URLs
	slugs      Slugger
	assets     *AssetList
	menu       *MenuList
	data       *YAMLDataRepository
	translator *CatalogTranslator
}

// NewBundle wires the default services from site.url, site.language,
// data.path and translations.path.
func NewBundle(cfg *config.Config, logger *slog.Logger) *Bundle {
	env := NewEnv(cfg.GetString("site.url"))
	return &Bundle{
		env:        env,
		urls:       NewURLs(env),
		assets:     NewAssetList(),
		menu:       NewMenuList(),
		data:       NewYAMLDataRepository(cfg.GetString("data.path")),
		translator: NewCatalogTranslator(cfg.GetString("translations.path"), cfg.GetString("site.language"), logger),
	}
}

func (b *Bundle) Environment() Environment       { return b.env }
func (b *Bundle) URLGenerator() URLGenerator     { return b.urls }
func (b *Bundle) SlugGenerator() SlugGenerator   { return b.slugs }
func (b *Bundle) Assets() Assets                 { return b.assets }
func (b *Bundle) Menu() Menu                     { return b.menu }
func (b *Bundle) DataRepository() DataRepository { return b.data }
func (b *Bundle) Translator() Translator         { return b.translator }

// Env exposes the concrete environment so the application can set the route.
func (b *Bundle) Env() *Env { return b.env }

// MenuList exposes the concrete menu so the application can populate it.
func (b *Bundle) MenuList() *MenuList { return b.menu }

var _ Services = (*Bundle)(nil)
