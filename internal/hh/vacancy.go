package hh

import "time"

// Vacancy is one listing as returned by the HH search API. Fields the
// formatter needs are best-effort: any of them can be missing or null in
// real responses.
type Vacancy struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Employer     Employer    `json:"employer"`
	Area         Area        `json:"area"`
	Salary       *Salary     `json:"salary"`
	Experience   *Experience `json:"experience"`
	AlternateURL string      `json:"alternate_url"`
	URL          string      `json:"url"`
	PublishedAt  string      `json:"published_at"`
}

type Employer struct {
	Name string `json:"name"`
}

type Area struct {
	Name string `json:"name"`
}

// Salary can be an open range: either bound may be null.
type Salary struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency"`
}

type Experience struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Link returns the canonical listing URL, preferring alternate_url.
func (v Vacancy) Link() string {
	if v.AlternateURL != "" {
		return v.AlternateURL
	}
	return v.URL
}

// PublishedTime parses published_at. HH emits ISO-8601 with a numeric
// offset; a bare Z suffix is accepted too.
func (v Vacancy) PublishedTime() (time.Time, bool) {
	if v.PublishedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if t, err := time.Parse(layout, v.PublishedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
