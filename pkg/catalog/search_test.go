package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFTSQuery(t *testing.T) {
	assert.Equal(t, `"report"*`, buildFTSQuery("report"))
	assert.Equal(t, `"annual" AND "report"`, buildFTSQuery("annual report"))
	assert.Equal(t, `"it""s"*`, buildFTSQuery(`it"s`))
}

func TestSearchByName(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertBatch([]Record{
		record("/M/vacation-photos.zip", "vacation-photos.zip", "/M", 100, "application/zip"),
		record("/M/report.pdf", "report.pdf", "/M", 50, "application/pdf"),
	}, nil))

	items, total, err := s.Search(SearchRequest{Query: "vacation"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "vacation-photos.zip", items[0].Name)
}

func TestSearchFindsEnrichedText(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertBatch([]Record{
		record("/M/notes.txt", "notes.txt", "/M", 10, "text/plain"),
	}, nil))

	// Not findable by content before enrichment.
	_, total, err := s.Search(SearchRequest{Query: "zanzibar"})
	require.NoError(t, err)
	assert.Zero(t, total)

	item, err := s.GetByPath("/M/notes.txt")
	require.NoError(t, err)
	require.NoError(t, s.ApplyEnrichments([]Enrichment{{
		FileID:   item.ID,
		FullText: strPtr("travel plans for zanzibar next spring"),
	}}))

	items, total, err := s.Search(SearchRequest{Query: "zanzibar"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "notes.txt", items[0].Name)
}

func TestSearchReplacedRowNotSearchableByOldText(t *testing.T) {
	s := newTestStore(t)

	rec := record("/M/doc.txt", "doc.txt", "/M", 10, "text/plain")
	require.NoError(t, s.UpsertBatch([]Record{rec}, nil))

	item, err := s.GetByPath("/M/doc.txt")
	require.NoError(t, err)
	require.NoError(t, s.ApplyEnrichments([]Enrichment{{
		FileID:   item.ID,
		FullText: strPtr("ephemeral xylophone content"),
	}}))

	// Re-index resets the row; the old extracted text must drop out of
	// the search index with it.
	require.NoError(t, s.UpsertBatch([]Record{rec}, nil))

	_, total, err := s.Search(SearchRequest{Query: "xylophone"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSearchFilters(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertBatch([]Record{
		record("/M/clip.mp4", "holiday clip.mp4", "/M", 5000, "video/mp4"),
		record("/M/holiday.txt", "holiday.txt", "/M", 10, "text/plain"),
	}, []TagPair{{Path: "/M/clip.mp4", Tag: "video"}}))

	_, total, err := s.Search(SearchRequest{Query: "holiday", MimeType: "video/"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	minSize := int64(1000)
	_, total, err = s.Search(SearchRequest{Query: "holiday", MinSize: &minSize})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = s.Search(SearchRequest{Query: "holiday", Tags: []string{"video"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = s.Search(SearchRequest{Query: "holiday"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestSearchPagination(t *testing.T) {
	s := newTestStore(t)

	recs := make([]Record, 0, 5)
	names := []string{"alpha-doc-1.txt", "alpha-doc-2.txt", "alpha-doc-3.txt", "alpha-doc-4.txt", "alpha-doc-5.txt"}
	for _, n := range names {
		recs = append(recs, record("/M/"+n, n, "/M", 1, "text/plain"))
	}
	require.NoError(t, s.UpsertBatch(recs, nil))

	items, total, err := s.Search(SearchRequest{Query: "alpha", SortBy: "name", Limit: 2, Skip: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	assert.Equal(t, "alpha-doc-3.txt", items[0].Name)
}

func TestSuggest(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertBatch([]Record{
		dirRecord("/M", "M", ""),
		record("/M/budget-2025.xlsx", "budget-2025.xlsx", "/M", 1, ""),
	}, nil))

	got, err := s.Suggest("budget", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "budget-2025.xlsx", got[0].Name)

	// Directories never appear in suggestions.
	got, err = s.Suggest("M", 10)
	require.NoError(t, err)
	for _, sg := range got {
		assert.NotEqual(t, "/M", sg.Path)
	}
}
