package blueprints_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	augment "github.com/goliatone/go-augment"
	"github.com/goliatone/go-augment/pkg/blueprints"
)

func TestLoadDir(t *testing.T) {
	registry, err := blueprints.LoadDir(filepath.Join("testdata", "valid"))
	require.NoError(t, err)
	assert.Equal(t, []string{"article", "invoice"}, registry.Handles())

	article, ok := registry.Blueprint("article")
	require.True(t, ok)
	assert.Equal(t, "Article", article.Title)
	assert.Equal(t, []string{"title", "status", "related", "author"}, article.Handles())
	assert.Equal(t, map[string]any{"status": "draft"}, article.Defaults())

	title, _ := article.Field("title")
	assert.Equal(t, augment.FieldTypeText, title.Type)
	assert.Equal(t, "Title", title.ConfigString("display"))

	related, _ := article.Field("related")
	assert.Equal(t, augment.FieldTypeEntries, related.Type)
	maxItems, ok := related.ConfigInt("max_items")
	require.True(t, ok)
	assert.Equal(t, 1, maxItems)

	invoice, ok := registry.Blueprint("invoice")
	require.True(t, ok)
	total, _ := invoice.Field("total")
	assert.Equal(t, augment.FieldTypeFormula, total.Type)
	assert.Equal(t, "price * qty", total.ConfigString("expression"))
	body, _ := invoice.Field("body")
	assert.Equal(t, augment.FieldTypeUnknown, body.Type)
}

func TestLoadDirRejectsDuplicateHandles(t *testing.T) {
	_, err := blueprints.LoadDir(filepath.Join("testdata", "duplicate"))
	require.Error(t, err)
	assert.ErrorIs(t, err, augment.ErrDuplicateBlueprint)
}

func TestParseRejectsDuplicateFields(t *testing.T) {
	raw := []byte("fields:\n  - handle: title\n    field: {type: text}\n  - handle: title\n    field: {type: textarea}\n")
	_, err := blueprints.Parse("article", raw)
	assert.ErrorIs(t, err, augment.ErrDuplicateField)
}

func TestParseErrors(t *testing.T) {
	_, err := blueprints.Parse("empty", []byte(""))
	assert.ErrorIs(t, err, blueprints.ErrEmptyDocument)

	_, err = blueprints.Parse("broken", []byte("fields: [\n"))
	assert.Error(t, err)

	_, err = blueprints.Parse("nameless", []byte("fields:\n  - field: {type: text}\n"))
	assert.ErrorIs(t, err, augment.ErrFieldHandleRequired)
}

func TestParseDefaultsTitleToHandle(t *testing.T) {
	bp, err := blueprints.Parse("page", []byte("fields:\n  - handle: body\n    field: {type: markdown}\n"))
	require.NoError(t, err)
	assert.Equal(t, "page", bp.Title)
	body, _ := bp.Field("body")
	assert.Equal(t, augment.FieldTypeTextarea, body.Type)
}

func TestHandleFromPath(t *testing.T) {
	assert.Equal(t, "article", blueprints.HandleFromPath("/tmp/blueprints/article.yaml"))
	assert.Equal(t, "page.v2", blueprints.HandleFromPath("page.v2.json"))
}
