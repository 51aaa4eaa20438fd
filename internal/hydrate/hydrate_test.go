package hydrate

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name      string         `json:"name"`
	Kind      string         `json:"kind"`
	Input     map[string]any `json:"input"`
	Expect    entryPayload   `json:"expect"`
	ExpectErr string         `json:"expectErr"`
	PreHooks  []string       `json:"preHooks"`
	PostHooks []string       `json:"postHooks"`
	Options   []string       `json:"options"`
}

type entryPayload struct {
	ID        string         `json:"id"`
	Slug      string         `json:"slug"`
	Container string         `json:"container"`
	Data      map[string]any `json:"data"`
}

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_entries.json")

	for _, tc := range fx.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			decoder := NewDecoder[entryPayload](buildOptions(tc)...)
			result, err := decoder.Decode(Source{Path: "fixture.yaml", Kind: tc.Kind}, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded payload mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[entryPayload] {
	options := []DecoderOption[entryPayload]{}
	for _, name := range tc.Options {
		if name == "disallow_unknown" {
			options = append(options, WithDisallowUnknownFields[entryPayload]())
		}
	}
	for _, name := range tc.PreHooks {
		switch name {
		case "require_id":
			options = append(options, WithPreHook[entryPayload](RequireKeys("id")))
		case "fold_fields":
			options = append(options, WithPreHook[entryPayload](foldFieldsPreHook))
		}
	}
	for _, name := range tc.PostHooks {
		if name == "default_slug" {
			options = append(options, WithPostHook[entryPayload](defaultSlugPostHook))
		}
	}
	return options
}

// foldFieldsPreHook moves every key outside the envelope into data.
func foldFieldsPreHook(_ Source, payload map[string]any) (map[string]any, error) {
	data, _ := payload["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	for key, value := range payload {
		switch key {
		case "id", "slug", "container", "data":
			continue
		}
		data[key] = value
		delete(payload, key)
	}
	payload["data"] = data
	return payload, nil
}

func defaultSlugPostHook(_ Source, entry *entryPayload) error {
	if entry == nil {
		return errors.New("entry is nil")
	}
	if entry.Slug == "" {
		entry.Slug = strings.ReplaceAll(strings.ToLower(entry.ID), "_", "-")
	}
	return nil
}

func TestDecodeDoesNotMutatePayload(t *testing.T) {
	payload := map[string]any{"id": "intro", "title": "Intro"}
	decoder := NewDecoder(WithPreHook[entryPayload](foldFieldsPreHook))
	if _, err := decoder.Decode(Source{Kind: "records"}, payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := payload["title"]; !ok {
		t.Fatalf("pre-hooks must operate on a copy")
	}
}

func TestDecodeListReportsItemIndex(t *testing.T) {
	decoder := NewDecoder(WithPreHook[entryPayload](RequireKeys("id")))
	items := []any{
		map[string]any{"id": "a"},
		map[string]any{"slug": "no-id"},
	}
	_, err := decoder.DecodeList(Source{Path: "data.yaml", Kind: "records"}, items)
	if err == nil || !strings.Contains(err.Error(), "records[1] in data.yaml") {
		t.Fatalf("expected indexed error, got %v", err)
	}

	_, err = decoder.DecodeList(Source{Kind: "records"}, []any{"scalar"})
	if err == nil || !strings.Contains(err.Error(), "expected a mapping") {
		t.Fatalf("expected mapping error, got %v", err)
	}
}

func TestParseDocumentAcceptsYAMLAndJSON(t *testing.T) {
	yamlDoc := []byte("records:\n  - id: intro\n    data:\n      title: Intro\n")
	jsonDoc := []byte(`{"records":[{"id":"intro","data":{"title":"Intro"}}]}`)

	for name, raw := range map[string][]byte{"data.yaml": yamlDoc, "data.json": jsonDoc} {
		doc, err := ParseDocument(name, raw)
		if err != nil {
			t.Fatalf("%s: parse: %v", name, err)
		}
		items, err := List(doc, "records")
		if err != nil || len(items) != 1 {
			t.Fatalf("%s: expected one record, got %v (%v)", name, items, err)
		}
		entries, err := NewDecoder[entryPayload]().DecodeList(Source{Path: name, Kind: "records"}, items)
		if err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if entries[0].ID != "intro" || entries[0].Data["title"] != "Intro" {
			t.Fatalf("%s: unexpected entry %+v", name, entries[0])
		}
	}

	if _, err := List(map[string]any{"records": "nope"}, "records"); err == nil {
		t.Fatalf("expected error for non-list value")
	}
	doc, err := ParseDocument("empty.yaml", nil)
	if err != nil || len(doc) != 0 {
		t.Fatalf("expected empty document, got %v (%v)", doc, err)
	}
}

func TestReadDocumentMissingFile(t *testing.T) {
	_, err := ReadDocument(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
