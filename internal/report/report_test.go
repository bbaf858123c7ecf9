package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derickschaefer/jstat/internal/jsonstat"
	"github.com/derickschaefer/jstat/internal/model"
	"github.com/derickschaefer/jstat/internal/report"
)

const galicia = `{
	"version": "2.0",
	"class": "dataset",
	"label": "Population by sex. Galicia",
	"source": "INE",
	"updated": "2012-11-27",
	"id": ["sex", "year"],
	"size": [2, 2],
	"role": {"time": ["year"]},
	"value": [100, null, 120, 125],
	"status": ["", "m", "", "p"],
	"dimension": {
		"sex": {"label": "sex", "category": {"index": ["M", "F"], "label": {"M": "men", "F": "women"}}},
		"year": {"category": {"index": {"2011": 0, "2012": 1}}}
	},
	"link": {
		"alternate": [{"type": "text/csv", "href": "https://x/galicia.csv"}],
		"item": [{"class": "dataset", "href": "https://x/a.json", "label": "A"}]
	}
}`

func narrow(t *testing.T, doc string) *jsonstat.Dataset {
	t.Helper()
	env, err := jsonstat.Decode([]byte(doc))
	require.NoError(t, err)
	ds, err := jsonstat.ToDataset(env)
	require.NoError(t, err)
	return ds
}

func TestSummarizeDataset(t *testing.T) {
	s := report.Summarize("galicia.json", narrow(t, galicia))
	assert.Equal(t, "dataset", s.Class)
	assert.Equal(t, "INE", s.Publisher)
	assert.Equal(t, "2012-11-27", s.Updated)
	assert.Equal(t, []string{"sex", "year"}, s.Dimensions)
	assert.EqualValues(t, 4, s.Cells)
	assert.Equal(t, 4, s.Values)
	assert.Equal(t, "array", s.ValueShape)
	assert.Equal(t, "array", s.StatusShape)
	assert.Equal(t, map[string][]string{"time": {"year"}}, s.Roles)
	assert.Equal(t, 2, s.Links)
}

func TestSummarizeDimension(t *testing.T) {
	dim, err := jsonstat.DecodeDimension([]byte(`{"label":"sex","category":{"index":["M","F","T"]}}`))
	require.NoError(t, err)
	s := report.Summarize("sex.json", dim)
	assert.Equal(t, "dimension", s.Class)
	assert.Equal(t, 3, s.Categories)
	assert.Equal(t, model.KindDimension, report.Kind(dim))
}

func TestDimensions(t *testing.T) {
	dims := report.Dimensions(narrow(t, galicia))
	require.Len(t, dims, 2)

	assert.Equal(t, "sex", dims[0].ID)
	assert.Equal(t, []string{"M", "F"}, dims[0].Keys)
	assert.Equal(t, []string{"men", "women"}, dims[0].Labels)
	assert.Equal(t, "array", dims[0].IndexShape)

	assert.Equal(t, "time", dims[1].Role)
	assert.Equal(t, []string{"2011", "2012"}, dims[1].Keys)
	assert.Equal(t, []string{"2011", "2012"}, dims[1].Labels)
	assert.Equal(t, "dictionary", dims[1].IndexShape)
}

func TestCells(t *testing.T) {
	table := report.Cells(narrow(t, galicia), 0)
	assert.Equal(t, []string{"sex", "year"}, table.Dimensions)
	require.Len(t, table.Rows, 4)

	assert.Equal(t, []string{"men", "2011"}, table.Rows[0].Labels)
	require.NotNil(t, table.Rows[0].Value)
	assert.Equal(t, 100.0, *table.Rows[0].Value)

	assert.Nil(t, table.Rows[1].Value, "null is a missing observation")
	assert.Equal(t, "m", table.Rows[1].Status)
	assert.Equal(t, []string{"F", "2012"}, table.Rows[3].Keys)
	assert.Equal(t, "p", table.Rows[3].Status)
}

func TestCellsLimit(t *testing.T) {
	table := report.Cells(narrow(t, galicia), 3)
	assert.Len(t, table.Rows, 3)
}

func TestLinks(t *testing.T) {
	ds := narrow(t, galicia)
	rows := report.Links(report.LinksOf(ds), "")
	require.Len(t, rows, 2)
	assert.Equal(t, "alternate", rows[0].Relation)
	assert.Equal(t, "typed", rows[0].Shape)
	assert.Equal(t, "text/csv", rows[0].Type)
	assert.Equal(t, "item", rows[1].Relation)
	assert.Equal(t, "jsonstat", rows[1].Shape)
	assert.Equal(t, "dataset", rows[1].Class)
	assert.Equal(t, "A", rows[1].Label)

	only := report.Links(ds.Link, "item")
	require.Len(t, only, 1)
	assert.Equal(t, "https://x/a.json", only[0].Href)

	assert.Empty(t, report.Links(ds.Link, "missing"))
}

func TestInspect(t *testing.T) {
	env, err := jsonstat.Decode([]byte(galicia))
	require.NoError(t, err)
	r := report.Inspect("galicia.json", env)

	assert.Equal(t, "2.0", r.Version)
	assert.Equal(t, "dataset", r.Class)
	byName := map[string]model.FieldReport{}
	for _, f := range r.Fields {
		byName[f.Name] = f
	}
	assert.Len(t, byName, 14)
	assert.False(t, byName["href"].Present)
	assert.Equal(t, "date", byName["updated"].Shape)
	assert.Equal(t, "array", byName["value"].Shape)
	assert.Equal(t, "4 entries", byName["value"].Detail)
	assert.False(t, byName["category"].Present)
	assert.Equal(t, "2 entries", byName["link"].Detail)

	assert.Equal(t, jsonstat.ClassDataset, env.Class, "inspection must not consume the envelope")
}
