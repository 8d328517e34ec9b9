package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/user/seometrics/internal/capability"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestRESTExecutorPostsCapabilityArguments(t *testing.T) {
	var captured *http.Request
	var capturedBody map[string]any
	executor := &RESTExecutor{
		BaseURL: "http://backend.local",
		Token:   "secret-token",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			captured = req
			if req.Body != nil {
				_ = json.NewDecoder(req.Body).Decode(&capturedBody)
			}
			return jsonResponse(http.StatusOK, `{"article_id":"a-1"}`), nil
		})},
	}

	env := executor.Execute(context.Background(), capability.ContentGenerateArticle, capability.Args{
		"topic":    "espresso",
		"site_url": "example.com",
	})
	if !env.Success {
		t.Fatalf("envelope = %+v", env)
	}
	if captured.Method != http.MethodPost || captured.URL.Path != "/api/articles/generate" {
		t.Fatalf("request = %s %s", captured.Method, captured.URL.Path)
	}
	if got := captured.Header.Get("Authorization"); got != "Bearer secret-token" {
		t.Fatalf("authorization = %q", got)
	}
	if capturedBody["topic"] != "espresso" {
		t.Fatalf("body = %v", capturedBody)
	}
	data, ok := env.Data.(map[string]any)
	if !ok || data["article_id"] != "a-1" {
		t.Fatalf("data = %v", env.Data)
	}
}

func TestRESTExecutorSiteStatusUsesQuery(t *testing.T) {
	var captured *http.Request
	executor := &RESTExecutor{
		BaseURL: "http://backend.local",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			captured = req
			return jsonResponse(http.StatusOK, `{"status":"active"}`), nil
		})},
	}

	env := executor.Execute(context.Background(), capability.SiteGetStatus, capability.Args{"site_url": "example.com"})
	if !env.Success {
		t.Fatalf("envelope = %+v", env)
	}
	if captured.Method != http.MethodGet || captured.URL.Path != "/api/sites/status" {
		t.Fatalf("request = %s %s", captured.Method, captured.URL.Path)
	}
	if got := captured.URL.Query().Get("site_url"); got != "example.com" {
		t.Fatalf("site_url query = %q", got)
	}
}

func TestRESTExecutorBackendErrorBecomesFailure(t *testing.T) {
	executor := &RESTExecutor{
		BaseURL: "http://backend.local",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusBadGateway, `{"error":"upstream down"}`), nil
		})},
	}

	env := executor.Execute(context.Background(), capability.GSCSyncData, capability.Args{"site_url": "example.com"})
	if env.Success {
		t.Fatalf("envelope = %+v, want failure", env)
	}
	if !strings.Contains(env.Error, "status=502") {
		t.Fatalf("error = %q", env.Error)
	}
}

func TestRESTExecutorUnknownCapability(t *testing.T) {
	executor := &RESTExecutor{BaseURL: "http://backend.local"}
	env := executor.Execute(context.Background(), capability.ID("NOPE_does_not_exist"), nil)
	if env.Success || !strings.Contains(env.Error, "unknown capability") {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestRESTExecutorRouteTable(t *testing.T) {
	routes := map[capability.ID]string{
		capability.ContentGenerateArticle: "/api/articles/generate",
		capability.ContentOptimize:        "/api/articles/optimize",
		capability.SEOAnalyzePage:         "/api/seo/audit",
		capability.SEOApplyFixes:          "/api/seo/fixes/apply",
		capability.GSCSyncData:            "/api/gsc/sync",
		capability.GSCQueryPerformance:    "/api/gsc/performance",
		capability.CMSPublishArticle:      "/api/cms/publish",
		capability.KeywordsResearch:       "/api/keywords/research",
		capability.SitemapGenerate:        "/api/sitemap/generate",
	}
	for name, wantPath := range routes {
		var gotPath string
		executor := &RESTExecutor{
			BaseURL: "http://backend.local",
			HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				gotPath = req.URL.Path
				return jsonResponse(http.StatusOK, `{}`), nil
			})},
		}
		if env := executor.Execute(context.Background(), name, capability.Args{}); !env.Success {
			t.Fatalf("%s: envelope = %+v", name, env)
		}
		if gotPath != wantPath {
			t.Errorf("%s routed to %s, want %s", name, gotPath, wantPath)
		}
	}
}
