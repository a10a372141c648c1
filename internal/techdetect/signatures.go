package techdetect

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ramaerik/webscout/internal/model"
)

// urlSignature matches a substring of a script or stylesheet URL to a
// technology.
type urlSignature struct {
	substring string
	category  model.TechCategory
	name      string
}

// scriptSignatures are checked against <script src> URLs.
var scriptSignatures = []urlSignature{
	{"jquery", model.TechCategoryJavaScript, "jQuery"},
	{"bootstrap", model.TechCategoryFramework, "Bootstrap"},
	{"react", model.TechCategoryJavaScript, "React"},
	{"vue", model.TechCategoryJavaScript, "Vue.js"},
	{"angular", model.TechCategoryJavaScript, "Angular"},
	{"googletagmanager", model.TechCategoryAnalytics, "Google Tag Manager"},
	{"google-analytics", model.TechCategoryAnalytics, "Google Analytics"},
	{"googleapis.com", model.TechCategoryCDN, "Google CDN"},
	{"cdnjs", model.TechCategoryCDN, "Cloudflare CDN"},
	{"cloudflare", model.TechCategoryCDN, "Cloudflare CDN"},
	{"jsdelivr", model.TechCategoryCDN, "jsDelivr"},
	{"unpkg.com", model.TechCategoryCDN, "unpkg"},
}

// linkSignatures are checked against <link href> URLs.
var linkSignatures = []urlSignature{
	{"bootstrap", model.TechCategoryFramework, "Bootstrap"},
	{"font-awesome", model.TechCategoryJavaScript, "Font Awesome"},
	{"fontawesome", model.TechCategoryJavaScript, "Font Awesome"},
	{"googleapis.com", model.TechCategoryCDN, "Google Fonts"},
	{"tailwind", model.TechCategoryFramework, "Tailwind CSS"},
}

// bodySignature matches a regex against the lowercased page body.
type bodySignature struct {
	pattern  *regexp.Regexp
	category model.TechCategory
	name     string
}

// bodySignatures detect technologies from markup patterns that URL and
// header checks miss, such as CMS path conventions and inline tracker
// snippets.
var bodySignatures = []bodySignature{
	{regexp.MustCompile(`wp-content|wp-includes`), model.TechCategoryCMS, "WordPress"},
	{regexp.MustCompile(`drupal|sites/default/files`), model.TechCategoryCMS, "Drupal"},
	{regexp.MustCompile(`option=com_`), model.TechCategoryCMS, "Joomla"},
	{regexp.MustCompile(`cdn\.shopify\.com|myshopify\.com`), model.TechCategoryCMS, "Shopify"},
	{regexp.MustCompile(`woocommerce`), model.TechCategoryCMS, "WooCommerce"},
	{regexp.MustCompile(`__viewstate`), model.TechCategoryLanguage, "ASP.NET"},
	{regexp.MustCompile(`phpsessid`), model.TechCategoryLanguage, "PHP"},
	{regexp.MustCompile(`csrfmiddlewaretoken`), model.TechCategoryFramework, "Django"},
	{regexp.MustCompile(`laravel_session`), model.TechCategoryFramework, "Laravel"},
	{regexp.MustCompile(`__next`), model.TechCategoryFramework, "Next.js"},
	{regexp.MustCompile(`__nuxt`), model.TechCategoryFramework, "Nuxt"},
	{regexp.MustCompile(`gtag\(|ga\('create'`), model.TechCategoryAnalytics, "Google Analytics"},
	{regexp.MustCompile(`fbq\(`), model.TechCategoryAnalytics, "Facebook Pixel"},
	{regexp.MustCompile(`hotjar`), model.TechCategoryAnalytics, "Hotjar"},
}

// generatorVersion splits a meta generator value like "WordPress 6.4"
// into name and version.
var generatorVersion = regexp.MustCompile(`^(.*?)\s+v?(\d[\d.]*)$`)

// analyzeHeaders inspects the response headers for server software,
// backend language, and CDN markers.
func (a *Analyzer) analyzeHeaders(res *model.FetchResult, techReport *model.TechReport) {
	server := strings.ToLower(res.Headers.Get("Server"))
	switch {
	case strings.Contains(server, "apache"):
		techReport.Add(model.Detection{Category: model.TechCategoryServer, Name: "Apache", Evidence: "Server header"})
	case strings.Contains(server, "nginx"):
		techReport.Add(model.Detection{Category: model.TechCategoryServer, Name: "Nginx", Evidence: "Server header"})
	case strings.Contains(server, "iis"), strings.Contains(server, "microsoft"):
		techReport.Add(model.Detection{Category: model.TechCategoryServer, Name: "Microsoft IIS", Evidence: "Server header"})
	case strings.Contains(server, "litespeed"):
		techReport.Add(model.Detection{Category: model.TechCategoryServer, Name: "LiteSpeed", Evidence: "Server header"})
	case strings.Contains(server, "caddy"):
		techReport.Add(model.Detection{Category: model.TechCategoryServer, Name: "Caddy", Evidence: "Server header"})
	}

	poweredBy := strings.ToLower(res.Headers.Get("X-Powered-By"))
	switch {
	case strings.Contains(poweredBy, "php"):
		d := model.Detection{Category: model.TechCategoryLanguage, Name: "PHP", Evidence: "X-Powered-By header"}
		if idx := strings.LastIndex(poweredBy, "/"); idx >= 0 {
			d.Version = poweredBy[idx+1:]
		}
		techReport.Add(d)
	case strings.Contains(poweredBy, "asp.net"):
		techReport.Add(model.Detection{Category: model.TechCategoryFramework, Name: "ASP.NET", Evidence: "X-Powered-By header"})
	case strings.Contains(poweredBy, "express"):
		techReport.Add(model.Detection{Category: model.TechCategoryFramework, Name: "Express.js", Evidence: "X-Powered-By header"})
	}

	if res.Headers.Get("Cf-Ray") != "" || strings.Contains(server, "cloudflare") {
		techReport.Add(model.Detection{Category: model.TechCategoryCDN, Name: "Cloudflare", Evidence: "CF-Ray header"})
	}
	if res.Headers.Get("X-Amz-Cf-Id") != "" {
		techReport.Add(model.Detection{Category: model.TechCategoryCDN, Name: "AWS CloudFront", Evidence: "X-Amz-Cf-Id header"})
	}

	for _, cookie := range res.Headers.Values("Set-Cookie") {
		lower := strings.ToLower(cookie)
		switch {
		case strings.HasPrefix(lower, "phpsessid"):
			techReport.Add(model.Detection{Category: model.TechCategoryLanguage, Name: "PHP", Evidence: "PHPSESSID cookie"})
		case strings.HasPrefix(lower, "jsessionid"):
			techReport.Add(model.Detection{Category: model.TechCategoryLanguage, Name: "Java", Evidence: "JSESSIONID cookie"})
		case strings.HasPrefix(lower, "laravel_session"):
			techReport.Add(model.Detection{Category: model.TechCategoryFramework, Name: "Laravel", Evidence: "laravel_session cookie"})
		case strings.HasPrefix(lower, "csrftoken"):
			techReport.Add(model.Detection{Category: model.TechCategoryFramework, Name: "Django", Evidence: "csrftoken cookie"})
		}
	}
}

// analyzeDocument runs the selector-based checks: the meta generator
// tag and referenced script/stylesheet URLs.
func (a *Analyzer) analyzeDocument(doc *goquery.Document, techReport *model.TechReport) {
	if generator, ok := doc.Find(`meta[name="generator"]`).Attr("content"); ok && generator != "" {
		d := model.Detection{
			Category: model.TechCategoryCMS,
			Name:     generator,
			Evidence: "meta generator tag",
		}
		if m := generatorVersion.FindStringSubmatch(generator); m != nil {
			d.Name = m[1]
			d.Version = m[2]
		}
		techReport.Add(d)
	}

	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		matchURLSignatures(strings.ToLower(src), scriptSignatures, "script URL", techReport)
	})

	doc.Find("link[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		matchURLSignatures(strings.ToLower(href), linkSignatures, "stylesheet URL", techReport)
	})
}

// analyzeBody runs the regex signature table against the raw markup.
func (a *Analyzer) analyzeBody(body []byte, techReport *model.TechReport) {
	lower := strings.ToLower(string(body))
	for _, sig := range bodySignatures {
		if sig.pattern.MatchString(lower) {
			techReport.Add(model.Detection{
				Category: sig.category,
				Name:     sig.name,
				Evidence: "markup pattern " + sig.pattern.String(),
			})
		}
	}
}

// matchURLSignatures records the first signature whose substring occurs
// in the URL.
func matchURLSignatures(lowerURL string, signatures []urlSignature, evidence string, techReport *model.TechReport) {
	if lowerURL == "" {
		return
	}
	for _, sig := range signatures {
		if strings.Contains(lowerURL, sig.substring) {
			techReport.Add(model.Detection{
				Category: sig.category,
				Name:     sig.name,
				Evidence: evidence + " contains " + sig.substring,
			})
			return
		}
	}
}
