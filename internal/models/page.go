package models

import "html/template"

// CompanyPage is an informational page from the site catalog, such as
// product/overview or legal/privacy.
type CompanyPage struct {
	Path       string
	Section    string
	Title      string
	Summary    string
	Body       template.HTML
	ComingSoon bool
}
