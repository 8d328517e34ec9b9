package orchestrator

import (
	"strings"

	"github.com/user/seometrics/internal/capability"
)

type authDecision struct {
	Allowed bool
	Reason  string
}

// normalizeSite reduces a site reference to a comparable form: lowercase,
// no scheme, no leading www., no trailing slash.
func normalizeSite(raw string) string {
	site := strings.ToLower(strings.TrimSpace(raw))
	site = strings.TrimPrefix(site, "https://")
	site = strings.TrimPrefix(site, "http://")
	site = strings.TrimPrefix(site, "www.")
	site = strings.TrimRight(site, "/")
	return site
}

// checkSiteAccess rejects an invocation whose validated arguments name a site
// other than the one the caller is authorized for. Capabilities without a
// site parameter, and requests without a declared site, pass through.
func checkSiteAccess(desc capability.Descriptor, args capability.Args, authorizedSite string) authDecision {
	if desc.SiteParam == "" {
		return authDecision{Allowed: true}
	}
	authorized := normalizeSite(authorizedSite)
	if authorized == "" {
		return authDecision{Allowed: true}
	}
	target := normalizeSite(args.String(desc.SiteParam))
	if target == "" || target == authorized {
		return authDecision{Allowed: true}
	}
	return authDecision{Allowed: false, Reason: "Unauthorized site access"}
}
