package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/user/seometrics/internal/capability"
)

// Executor performs one validated capability invocation against the SaaS
// backend. It always settles to an Envelope; from the loop's point of view an
// invocation is either applied or failed, never half done.
type Executor interface {
	Execute(ctx context.Context, name capability.ID, args capability.Args) Envelope
}

// RESTExecutor dispatches capabilities onto the backend REST API. The switch
// is exhaustive over the catalogue; a name that reaches default slipped past
// the registry boundary.
type RESTExecutor struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func (e *RESTExecutor) Execute(ctx context.Context, name capability.ID, args capability.Args) Envelope {
	switch name {
	case capability.ContentGenerateArticle:
		return e.post(ctx, "/api/articles/generate", args)
	case capability.ContentOptimize:
		return e.post(ctx, "/api/articles/optimize", args)
	case capability.SEOAnalyzePage:
		return e.post(ctx, "/api/seo/audit", args)
	case capability.SEOApplyFixes:
		return e.post(ctx, "/api/seo/fixes/apply", args)
	case capability.GSCSyncData:
		return e.post(ctx, "/api/gsc/sync", args)
	case capability.GSCQueryPerformance:
		return e.post(ctx, "/api/gsc/performance", args)
	case capability.CMSPublishArticle:
		return e.post(ctx, "/api/cms/publish", args)
	case capability.KeywordsResearch:
		return e.post(ctx, "/api/keywords/research", args)
	case capability.SitemapGenerate:
		return e.post(ctx, "/api/sitemap/generate", args)
	case capability.SiteGetStatus:
		query := url.Values{}
		if site := args.String("site_url"); site != "" {
			query.Set("site_url", site)
		}
		return e.get(ctx, "/api/sites/status", query)
	default:
		return failEnvelope("unknown capability: %s", name)
	}
}

func (e *RESTExecutor) post(ctx context.Context, path string, body any) Envelope {
	data, err := e.doJSON(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return failEnvelope("%s", err.Error())
	}
	return okEnvelope(data)
}

func (e *RESTExecutor) get(ctx context.Context, path string, query url.Values) Envelope {
	data, err := e.doJSON(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return failEnvelope("%s", err.Error())
	}
	return okEnvelope(data)
}

func (e *RESTExecutor) doJSON(ctx context.Context, method string, path string, query url.Values, reqBody any) (map[string]any, error) {
	if e == nil {
		return nil, fmt.Errorf("rest executor is required")
	}
	base := strings.TrimRight(e.BaseURL, "/")
	if base == "" {
		base = "http://127.0.0.1:3000"
	}
	u, err := url.Parse(base + path)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		buf, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(e.Token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(e.Token))
	}

	hc := e.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("backend %s %s failed: status=%d body=%s", method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if resp.StatusCode == http.StatusNoContent {
		return map[string]any{}, nil
	}
	out := map[string]any{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
