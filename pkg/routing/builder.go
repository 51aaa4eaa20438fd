// Package routing derives record addresses from container route patterns.
package routing

import (
	"fmt"
	"regexp"
	"strings"

	augment "github.com/goliatone/go-augment"
)

// Config holds the base addresses a PatternBuilder joins paths onto.
type Config struct {
	// SiteURL is the public site root, e.g. "https://example.com".
	SiteURL string
	// CPURL is the control panel root. Defaults to SiteURL + "/cp".
	CPURL string
	// APIURL is the REST API root. Defaults to SiteURL + "/api".
	APIURL string
	// AmpPrefix is the path segment AMP pages live under. Defaults to "amp".
	AmpPrefix string
}

// PatternBuilder is an augment.URLBuilder and augment.AmpURLBuilder driven by
// each container's Route pattern, such as "/blog/{year}/{slug}".
//
// Supported placeholders are {id}, {slug}, {container}, {year}, {month} and
// {day}; any other name is read from the record's stored data. A container
// without a route gives records no URI, URL, permalink or AMP URL.
type PatternBuilder struct {
	cfg Config
}

// NewPatternBuilder returns a builder for cfg. CPURL and APIURL default to
// "/cp" and "/api" under SiteURL, AmpPrefix defaults to "amp", and trailing
// slashes are trimmed from all of them.
func NewPatternBuilder(cfg Config) *PatternBuilder {
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	if cfg.CPURL == "" {
		cfg.CPURL = cfg.SiteURL + "/cp"
	}
	if cfg.APIURL == "" {
		cfg.APIURL = cfg.SiteURL + "/api"
	}
	if cfg.AmpPrefix == "" {
		cfg.AmpPrefix = "amp"
	}
	cfg.CPURL = strings.TrimRight(cfg.CPURL, "/")
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.AmpPrefix = strings.Trim(cfg.AmpPrefix, "/")
	return &PatternBuilder{cfg: cfg}
}

var placeholder = regexp.MustCompile(`\{([a-z_][a-z0-9_]*)\}`)

// URI expands the container route for record.
func (b *PatternBuilder) URI(record *augment.Record, container *augment.Container) (string, error) {
	if record == nil || container == nil || strings.TrimSpace(container.Route) == "" {
		return "", nil
	}
	var missing []string
	uri := placeholder.ReplaceAllStringFunc(container.Route, func(token string) string {
		name := token[1 : len(token)-1]
		value, ok := segment(record, container, name)
		if !ok {
			missing = append(missing, name)
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("routing: record %q: route %q: no value for %s",
			record.ID, container.Route, strings.Join(missing, ", "))
	}
	uri = "/" + strings.Trim(collapseSlashes(uri), "/")
	return uri, nil
}

// URL is the site relative address, the same as URI.
func (b *PatternBuilder) URL(record *augment.Record, container *augment.Container) (string, error) {
	return b.URI(record, container)
}

// Permalink is the absolute public address.
func (b *PatternBuilder) Permalink(record *augment.Record, container *augment.Container) (string, error) {
	uri, err := b.URI(record, container)
	if err != nil || uri == "" {
		return "", err
	}
	return b.cfg.SiteURL + uri, nil
}

// AmpURL is the absolute address of the AMP rendition.
func (b *PatternBuilder) AmpURL(record *augment.Record, container *augment.Container) (string, error) {
	uri, err := b.URI(record, container)
	if err != nil || uri == "" {
		return "", err
	}
	return b.cfg.SiteURL + "/" + b.cfg.AmpPrefix + uri, nil
}

// EditURL addresses the record in the control panel.
func (b *PatternBuilder) EditURL(record *augment.Record, container *augment.Container) (string, error) {
	if record == nil || container == nil {
		return "", nil
	}
	url := fmt.Sprintf("%s/collections/%s/entries/%s", b.cfg.CPURL, container.ID, record.ID)
	if record.Slug != "" {
		url += "/" + record.Slug
	}
	return url, nil
}

// APIURL addresses the record in the REST API.
func (b *PatternBuilder) APIURL(record *augment.Record, container *augment.Container) (string, error) {
	if record == nil || container == nil {
		return "", nil
	}
	return fmt.Sprintf("%s/collections/%s/entries/%s", b.cfg.APIURL, container.ID, record.ID), nil
}

func segment(record *augment.Record, container *augment.Container, name string) (string, bool) {
	switch name {
	case "id":
		return record.ID, record.ID != ""
	case "slug":
		if record.Slug != "" {
			return record.Slug, true
		}
		return record.ID, record.ID != ""
	case "container":
		return container.ID, container.ID != ""
	case "year", "month", "day":
		if record.Date == nil {
			return "", false
		}
		switch name {
		case "year":
			return record.Date.Format("2006"), true
		case "month":
			return record.Date.Format("01"), true
		default:
			return record.Date.Format("02"), true
		}
	}
	value, ok := record.Get(name)
	if !ok || value == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(value))
	return s, s != ""
}

func collapseSlashes(path string) string {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return path
}

var (
	_ augment.URLBuilder    = (*PatternBuilder)(nil)
	_ augment.AmpURLBuilder = (*PatternBuilder)(nil)
)
