package model

import "time"

// TechCategory groups technology detections in reports.
type TechCategory string

// Technology categories, in report order.
const (
	// TechCategoryServer covers web server software (nginx, Apache, ...).
	TechCategoryServer TechCategory = "server"
	// TechCategoryLanguage covers backend languages (PHP, ASP.NET, ...).
	TechCategoryLanguage TechCategory = "language"
	// TechCategoryCMS covers content management systems.
	TechCategoryCMS TechCategory = "cms"
	// TechCategoryFramework covers web frameworks (Django, Laravel, ...).
	TechCategoryFramework TechCategory = "framework"
	// TechCategoryJavaScript covers frontend libraries (React, jQuery, ...).
	TechCategoryJavaScript TechCategory = "javascript"
	// TechCategoryAnalytics covers analytics and tag managers.
	TechCategoryAnalytics TechCategory = "analytics"
	// TechCategoryCDN covers content delivery networks.
	TechCategoryCDN TechCategory = "cdn"
)

// Categories returns all technology categories in report order.
func Categories() []TechCategory {
	return []TechCategory{
		TechCategoryServer,
		TechCategoryLanguage,
		TechCategoryCMS,
		TechCategoryFramework,
		TechCategoryJavaScript,
		TechCategoryAnalytics,
		TechCategoryCDN,
	}
}

// Detection is one identified technology.
type Detection struct {
	// Category is the technology category.
	Category TechCategory `json:"category"`

	// Name is the technology name (e.g., "WordPress", "nginx").
	Name string `json:"name"`

	// Version is the detected version, if the evidence carried one.
	Version string `json:"version,omitempty"`

	// Evidence names what triggered the detection (a header name, a meta
	// generator value, a matched URL substring).
	Evidence string `json:"evidence"`
}

// TechReport collects all technology detections for one URL.
type TechReport struct {
	// URL is the analyzed page URL.
	URL string `json:"url"`

	// StatusCode is the HTTP status of the analyzed response.
	StatusCode int `json:"status_code"`

	// Detections lists every identified technology. Duplicate names
	// within a category are merged by the analyzer.
	Detections []Detection `json:"detections"`

	// AnalyzedAt is when the analysis completed.
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// ByCategory returns the detections in the given category, in detection order.
func (r *TechReport) ByCategory(c TechCategory) []Detection {
	var out []Detection
	for _, d := range r.Detections {
		if d.Category == c {
			out = append(out, d)
		}
	}
	return out
}

// Add appends a detection unless an identical name already exists in the
// same category, keeping the first evidence seen.
func (r *TechReport) Add(d Detection) {
	for _, existing := range r.Detections {
		if existing.Category == d.Category && existing.Name == d.Name {
			return
		}
	}
	r.Detections = append(r.Detections, d)
}
