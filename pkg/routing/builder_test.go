package routing_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	augment "github.com/goliatone/go-augment"
	"github.com/goliatone/go-augment/pkg/routing"
)

func testEntry() (*augment.Record, *augment.Container) {
	record := augment.NewRecord("entry-id", "test")
	record.Slug = "entry-slug"
	container := &augment.Container{ID: "test", Route: "/test/{slug}", Ampable: true}
	return record, container
}

func ExamplePatternBuilder() {
	builder := routing.NewPatternBuilder(routing.Config{SiteURL: "http://localhost/"})
	record, container := testEntry()

	uri, _ := builder.URI(record, container)
	url, _ := builder.URL(record, container)
	edit, _ := builder.EditURL(record, container)
	permalink, _ := builder.Permalink(record, container)
	amp, _ := builder.AmpURL(record, container)
	api, _ := builder.APIURL(record, container)

	fmt.Println(uri)
	fmt.Println(url)
	fmt.Println(edit)
	fmt.Println(permalink)
	fmt.Println(amp)
	fmt.Println(api)
	// Output:
	// /test/entry-slug
	// /test/entry-slug
	// http://localhost/cp/collections/test/entries/entry-id/entry-slug
	// http://localhost/test/entry-slug
	// http://localhost/amp/test/entry-slug
	// http://localhost/api/collections/test/entries/entry-id
}

func TestRoutePlaceholders(t *testing.T) {
	builder := routing.NewPatternBuilder(routing.Config{SiteURL: "https://example.com"})
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	dated := augment.NewRecord("a", "blog")
	dated.Slug = "hello"
	dated.Date = &date

	cases := []struct {
		name   string
		route  string
		record *augment.Record
		want   string
	}{
		{
			name:   "dated",
			route:  "/{container}/{year}/{month}/{day}/{slug}",
			record: dated,
			want:   "/blog/2024/03/05/hello",
		},
		{
			name:   "slug falls back to id",
			route:  "blog/{slug}/",
			record: augment.NewRecord("post-7", "blog"),
			want:   "/blog/post-7",
		},
		{
			name:   "data placeholder",
			route:  "/{category}/{id}",
			record: augment.NewRecord("a", "blog").Set("category", "news"),
			want:   "/news/a",
		},
		{
			name:   "root",
			route:  "/",
			record: augment.NewRecord("home", "pages"),
			want:   "/",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			container := &augment.Container{ID: "blog", Route: tc.route}
			got, err := builder.URI(tc.record, container)
			if err != nil {
				t.Fatalf("uri: %v", err)
			}
			if got != tc.want {
				t.Fatalf("URI() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMissingPlaceholderIsAnError(t *testing.T) {
	builder := routing.NewPatternBuilder(routing.Config{SiteURL: "https://example.com"})
	container := &augment.Container{ID: "blog", Route: "/{year}/{slug}"}
	_, err := builder.URI(augment.NewRecord("a", "blog"), container)
	if err == nil || !strings.Contains(err.Error(), "no value for year") {
		t.Fatalf("expected missing placeholder error, got %v", err)
	}
}

func TestNoRouteMeansNoAddress(t *testing.T) {
	builder := routing.NewPatternBuilder(routing.Config{SiteURL: "https://example.com", CPURL: "https://admin.example.com/"})
	record := augment.NewRecord("a", "blog")
	container := &augment.Container{ID: "blog"}

	for name, fn := range map[string]func(*augment.Record, *augment.Container) (string, error){
		"uri":       builder.URI,
		"url":       builder.URL,
		"permalink": builder.Permalink,
		"amp_url":   builder.AmpURL,
	} {
		got, err := fn(record, container)
		if err != nil || got != "" {
			t.Fatalf("%s: expected no address, got %q (%v)", name, got, err)
		}
	}
	edit, _ := builder.EditURL(record, container)
	if edit != "https://admin.example.com/collections/blog/entries/a" {
		t.Fatalf("unexpected edit url %q", edit)
	}
}

func TestResolverUsesPatternBuilder(t *testing.T) {
	record, container := testEntry()
	store := &singleContainerStore{container: container}
	resolver := augment.NewResolver(
		augment.WithStore(store),
		augment.WithURLBuilder(routing.NewPatternBuilder(routing.Config{SiteURL: "http://localhost"})),
		augment.WithAmp(true),
	)
	values, err := resolver.ResolveAll(t.Context(), record, "uri", "permalink", "amp_url", "api_url")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	raw := values.Raw()
	if raw["uri"] != "/test/entry-slug" || raw["amp_url"] != "http://localhost/amp/test/entry-slug" {
		t.Fatalf("unexpected values %#v", raw)
	}
}

func TestNewPatternBuilderTrimsConfiguredURLs(t *testing.T) {
	builder := routing.NewPatternBuilder(routing.Config{
		SiteURL:   "https://example.com//",
		APIURL:    "https://api.example.com/v1/",
		AmpPrefix: "/mobile/",
	})
	record, container := testEntry()

	for name, tc := range map[string]struct {
		fn   func(*augment.Record, *augment.Container) (string, error)
		want string
	}{
		"edit_url": {builder.EditURL, "https://example.com/cp/collections/test/entries/entry-id/entry-slug"},
		"api_url":  {builder.APIURL, "https://api.example.com/v1/collections/test/entries/entry-id"},
		"amp_url":  {builder.AmpURL, "https://example.com/mobile/test/entry-slug"},
	} {
		got, err := tc.fn(record, container)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", name, tc.want, got)
		}
	}
}
