package report

// lighthouseCategories maps lighthouse audit ids to a functional area.
// Audits missing from the table are categorized "other".
var lighthouseCategories = map[string]string{
	// Performance
	"first-contentful-paint":          "performance",
	"largest-contentful-paint":        "performance",
	"total-blocking-time":             "performance",
	"cumulative-layout-shift":         "performance",
	"speed-index":                     "performance",
	"interactive":                     "performance",
	"max-potential-fid":               "performance",
	"server-response-time":            "performance",
	"render-blocking-resources":       "performance",
	"unused-css-rules":                "performance",
	"unused-javascript":               "performance",
	"modern-image-formats":            "performance",
	"uses-responsive-images":          "performance",
	"efficient-animated-content":      "performance",
	"duplicated-javascript":           "performance",
	"legacy-javascript":               "performance",
	"dom-size":                        "performance",
	"total-byte-weight":               "performance",
	"offscreen-images":                "performance",
	"unminified-css":                  "performance",
	"unminified-javascript":           "performance",
	"uses-optimized-images":           "performance",
	"uses-text-compression":           "performance",
	"uses-rel-preconnect":             "performance",
	"redirects":                       "performance",
	"uses-http2":                      "performance",
	"unsized-images":                  "performance",
	"mainthread-work-breakdown":       "performance",
	"font-display-insight":            "performance",
	"forced-reflow-insight":           "performance",
	"image-delivery-insight":          "performance",
	"lcp-breakdown-insight":           "performance",
	"lcp-discovery-insight":           "performance",
	"network-dependency-tree-insight": "performance",
	"render-blocking-insight":         "performance",
	"cache-insight":                   "performance",
	"legacy-javascript-insight":       "performance",

	// Accessibility
	"target-size":           "accessibility",
	"color-contrast":        "accessibility",
	"image-alt":             "accessibility",
	"button-name":           "accessibility",
	"link-name":             "accessibility",
	"aria-allowed-attr":     "accessibility",
	"aria-hidden-body":      "accessibility",
	"aria-hidden-focus":     "accessibility",
	"aria-input-field-name": "accessibility",
	"aria-required-attr":    "accessibility",
	"aria-roles":            "accessibility",
	"aria-valid-attr":       "accessibility",
	"aria-valid-attr-value": "accessibility",
	"document-title":        "accessibility",
	"html-has-lang":         "accessibility",
	"html-lang-valid":       "accessibility",
	"label":                 "accessibility",
	"meta-viewport":         "accessibility",

	// Best practices
	"is-on-https":                          "best-practices",
	"external-anchors-use-rel-noopener":    "best-practices",
	"geolocation-on-start":                 "best-practices",
	"notification-on-start":                "best-practices",
	"no-vulnerable-libraries":              "best-practices",
	"image-size-responsive":                "best-practices",
	"doctype":                              "best-practices",
	"charset":                              "best-practices",
	"inspector-issues":                     "best-practices",
	"js-libraries":                         "best-practices",
	"deprecations":                         "best-practices",
	"password-inputs-can-be-pasted-into":   "best-practices",

	// SEO
	"viewport":          "seo",
	"meta-description":  "seo",
	"http-status-code":  "seo",
	"link-text":         "seo",
	"crawlable-anchors": "seo",
	"is-crawlable":      "seo",
	"robots-txt":        "seo",
	"canonical":         "seo",
	"hreflang":          "seo",
	"font-size":         "seo",
	"plugins":           "seo",
	"tap-targets":       "seo",
}
