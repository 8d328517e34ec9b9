package capability

func floatPtr(v float64) *float64 { return &v }

// Defaults returns the shipped capability catalogue.
func Defaults() []Descriptor {
	return []Descriptor{
		{
			Name:        ContentGenerateArticle,
			Category:    CategoryContent,
			Description: "Generate a full SEO-optimized article draft for a topic",
			Parameters: map[string]Param{
				"topic":      {Type: "string", Description: "Subject the article should cover", Required: true, MaxLength: 300},
				"site_url":   {Type: "string", Description: "Site the article belongs to; omit to use the caller's site"},
				"tone":       {Type: "string", Description: "Writing tone", Enum: []string{"professional", "casual", "technical"}},
				"word_count": {Type: "integer", Description: "Target length in words", Minimum: floatPtr(300), Maximum: floatPtr(5000)},
				"keywords":   {Type: "array", Description: "Keywords the draft should target"},
			},
			SiteParam: "site_url",
		},
		{
			Name:        ContentOptimize,
			Category:    CategoryContent,
			Description: "Rewrite an existing page for better search performance",
			Parameters: map[string]Param{
				"page_url": {Type: "string", Description: "URL of the page to optimize", Required: true},
				"site_url": {Type: "string", Description: "Site owning the page", Required: true},
				"focus":    {Type: "string", Description: "Primary keyword or angle to optimize for", MaxLength: 200},
			},
			SiteParam: "site_url",
		},
		{
			Name:        SEOAnalyzePage,
			Category:    CategorySEO,
			Description: "Run a technical SEO audit on one page and report issues",
			Parameters: map[string]Param{
				"page_url": {Type: "string", Description: "URL to audit", Required: true},
				"site_url": {Type: "string", Description: "Site owning the page", Required: true},
				"depth":    {Type: "string", Description: "Audit depth", Enum: []string{"quick", "full"}},
			},
			SiteParam: "site_url",
		},
		{
			Name:        SEOApplyFixes,
			Category:    CategorySEO,
			Description: "Apply previously reported automated SEO fixes to a site",
			Parameters: map[string]Param{
				"site_url": {Type: "string", Description: "Site to fix", Required: true},
				"fix_ids":  {Type: "array", Description: "Identifiers of the fixes to apply", Required: true},
			},
			SiteParam: "site_url",
		},
		{
			Name:        GSCSyncData,
			Category:    CategoryGSC,
			Description: "Sync fresh Search Console performance data for a site",
			Parameters: map[string]Param{
				"site_url": {Type: "string", Description: "Site property to sync", Required: true},
				"days":     {Type: "integer", Description: "How many days of history to pull", Minimum: floatPtr(1), Maximum: floatPtr(90)},
			},
			SiteParam: "site_url",
		},
		{
			Name:        GSCQueryPerformance,
			Category:    CategoryGSC,
			Description: "Query synced Search Console metrics (clicks, impressions, position)",
			Parameters: map[string]Param{
				"site_url":  {Type: "string", Description: "Site property to query", Required: true},
				"dimension": {Type: "string", Description: "Group results by", Enum: []string{"query", "page", "country", "device"}},
				"limit":     {Type: "integer", Description: "Max rows to return", Minimum: floatPtr(1), Maximum: floatPtr(500)},
			},
			SiteParam: "site_url",
		},
		{
			Name:        CMSPublishArticle,
			Category:    CategoryCMS,
			Description: "Publish a generated article to the site's connected CMS",
			Parameters: map[string]Param{
				"article_id": {Type: "string", Description: "Draft article identifier", Required: true},
				"site_url":   {Type: "string", Description: "Site whose CMS receives the article", Required: true},
				"status":     {Type: "string", Description: "Publish state", Enum: []string{"draft", "published"}},
			},
			SiteParam: "site_url",
		},
		{
			Name:        KeywordsResearch,
			Category:    CategoryKeywords,
			Description: "Research keyword ideas and difficulty for a seed term",
			Parameters: map[string]Param{
				"seed":    {Type: "string", Description: "Seed keyword or phrase", Required: true, MaxLength: 120},
				"country": {Type: "string", Description: "Two-letter market code"},
				"limit":   {Type: "integer", Description: "Max suggestions", Minimum: floatPtr(1), Maximum: floatPtr(100)},
			},
		},
		{
			Name:        SitemapGenerate,
			Category:    CategorySEO,
			Description: "Generate and submit an XML sitemap for a site",
			Parameters: map[string]Param{
				"site_url": {Type: "string", Description: "Site to generate the sitemap for", Required: true},
				"submit":   {Type: "boolean", Description: "Submit to Search Console after generating"},
			},
			SiteParam: "site_url",
		},
		{
			Name:        SiteGetStatus,
			Category:    CategorySite,
			Description: "Fetch setup and indexing status for one of the user's sites",
			Parameters: map[string]Param{
				"site_url": {Type: "string", Description: "Site to inspect", Required: true},
			},
			SiteParam: "site_url",
		},
	}
}

// DefaultRegistry builds the registry from the shipped catalogue.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(Defaults()...)
	if err != nil {
		panic(err)
	}
	return reg
}
