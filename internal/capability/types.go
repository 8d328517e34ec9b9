package capability

// ID identifies one capability in the closed catalogue. New capabilities are
// added here and in Defaults; the executor switches on ID exhaustively.
type ID string

const (
	ContentGenerateArticle ID = "CONTENT_generate_article"
	ContentOptimize        ID = "CONTENT_optimize_existing"
	SEOAnalyzePage         ID = "SEO_analyze_page"
	SEOApplyFixes          ID = "SEO_apply_fixes"
	GSCSyncData            ID = "GSC_sync_data"
	GSCQueryPerformance    ID = "GSC_query_performance"
	CMSPublishArticle      ID = "CMS_publish_article"
	KeywordsResearch       ID = "KEYWORDS_research"
	SitemapGenerate        ID = "SITEMAP_generate"
	SiteGetStatus          ID = "SITE_get_status"
)

type Category string

const (
	CategoryContent  Category = "content"
	CategorySEO      Category = "seo"
	CategoryGSC      Category = "gsc"
	CategoryCMS      Category = "cms"
	CategoryKeywords Category = "keywords"
	CategorySite     Category = "site"
)

// Param declares one argument of a capability schema.
type Param struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	MaxLength   int      `json:"max_length,omitempty"`
}

// Descriptor is the immutable catalogue entry for one capability.
type Descriptor struct {
	Name        ID               `json:"name"`
	Category    Category         `json:"category"`
	Description string           `json:"description"`
	Parameters  map[string]Param `json:"parameters"`
	// SiteParam names the argument holding the target site, empty when the
	// capability does not act on a specific site.
	SiteParam string `json:"site_param,omitempty"`
}

// Args holds validated, deep-copied capability arguments. Produced only by
// Validate; callers must execute with this copy, never the raw model payload.
type Args map[string]any

func (a Args) String(key string) string {
	if a == nil {
		return ""
	}
	s, _ := a[key].(string)
	return s
}
