package jsonstat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derickschaefer/jstat/internal/jsonstat"
)

const tuvalu = `{
	"version" : "2.0",
	"class" : "dataset",
	"label" : "Population in Tuvalu in 2002. By sex",
	"value" : [4729, 4832, 9561],
	"status": { "1" : "m" },
	"id" : ["metric", "time", "geo", "sex"],
	"size" : [1, 1, 1, 3],
	"dimension" : {
		"sex" : {
			"label" : "sex",
			"category" : {
				"index" : { "M" : 0, "F" : 1, "T" : 2 },
				"label" : { "M" : "men", "F" : "women", "T" : "total" }
			}
		}
	},
	"extension": { "contact": "mark.paulin@googlemail.com" }
}`

const samplesIndex = `{
	"version": "2.0",
	"class": "collection",
	"label": "JSON-stat sample datasets",
	"href": "https://json-stat.org/samples/datasets/index.json",
	"updated": "2014-05-08",
	"link": {
		"item": [
			{ "class": "dataset", "href": "https://json-stat.org/samples/oecd.json", "label": "Unemployment rate in the OECD countries 2003-2014" },
			{ "class": "dataset", "href": "https://json-stat.org/samples/canada.json", "label": "Population by sex and age group. Canada. 2012" },
			{ "class": "dataset", "href": "https://json-stat.org/samples/galicia.json", "label": "Population by province of residence, place of birth, age, gender and year in Galicia" },
			{ "type": "text/html", "href": "https://json-stat.org/samples/" }
		]
	}
}`

const sexDimension = `{
	"version": "2.0",
	"class": "dimension",
	"label": "sex",
	"category": {
		"index": ["M", "F", "T"],
		"label": { "M": "men", "F": "women", "T": "total" }
	}
}`

func decode(t *testing.T, doc string) *jsonstat.Envelope {
	t.Helper()
	env, err := jsonstat.Decode([]byte(doc))
	require.NoError(t, err)
	return env
}

// ─── Sample documents ─────────────────────────────────────────────────────────

func TestDecodeTuvaluDataset(t *testing.T) {
	env := decode(t, tuvalu)
	assert.Equal(t, jsonstat.Version2, env.Version)
	assert.Equal(t, jsonstat.ClassDataset, env.Class)

	ds, err := jsonstat.ToDataset(env)
	require.NoError(t, err)

	require.NotNil(t, ds.Label)
	assert.Equal(t, "Population in Tuvalu in 2002. By sex", *ds.Label)
	assert.Equal(t, []string{"metric", "time", "geo", "sex"}, ds.ID)
	assert.Equal(t, []uint32{1, 1, 1, 3}, ds.Size)

	assert.Equal(t, jsonstat.ShapeArray, ds.Value.Shape)
	assert.Equal(t, []jsonstat.Cell{jsonstat.Num(4729), jsonstat.Num(4832), jsonstat.Num(9561)}, ds.Value.Array)

	require.NotNil(t, ds.Status)
	assert.Equal(t, jsonstat.ShapeDictionary, ds.Status.Shape)
	assert.Equal(t, map[string]string{"1": "m"}, ds.Status.Dict)

	sex := ds.Dimension["sex"]
	require.NotNil(t, sex)
	assert.Equal(t, []string{"M", "F", "T"}, sex.Keys())
	assert.Equal(t, "women", sex.LabelOf("F"))
	assert.Equal(t, "mark.paulin@googlemail.com", ds.Extension["contact"])
}

func TestDecodeCollectionKeepsItemOrder(t *testing.T) {
	coll, err := jsonstat.ToCollection(decode(t, samplesIndex))
	require.NoError(t, err)

	items := coll.Items()
	require.Len(t, items, 4)
	assert.Equal(t, "https://json-stat.org/samples/oecd.json", items[0].Href())
	assert.Equal(t, "https://json-stat.org/samples/canada.json", items[1].Href())
	assert.Equal(t, "https://json-stat.org/samples/galicia.json", items[2].Href())

	require.NotNil(t, items[3].Other)
	assert.Equal(t, "text/html", items[3].Other.Type)

	require.NotNil(t, coll.Updated)
	assert.Equal(t, jsonstat.UpdatedDate, coll.Updated.Kind)
}

func TestDecodeStandaloneDimension(t *testing.T) {
	env := decode(t, sexDimension)
	assert.Equal(t, jsonstat.ClassDimension, env.Class)
	require.NotNil(t, env.Category)

	dim, err := jsonstat.DecodeDimension([]byte(sexDimension))
	require.NoError(t, err)
	assert.Equal(t, []string{"M", "F", "T"}, dim.Keys())
	require.NotNil(t, dim.Label)
	assert.Equal(t, "sex", *dim.Label)
}

func TestDecodeDimensionRequiresCategory(t *testing.T) {
	_, err := jsonstat.DecodeDimension([]byte(`{"label":"sex"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, jsonstat.ErrRequired)

	var pe *jsonstat.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "category", pe.Path)
}

// ─── Decode failures ──────────────────────────────────────────────────────────

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		path   string
		syntax bool
	}{
		{"truncated", `{"version":"2.0",`, "", true},
		{"not json", `{not json}`, "", true},
		{"top-level array", `[1,2,3]`, "", false},
		{"unknown version", `{"version":"1.0","class":"dataset"}`, "version", false},
		{"numeric version", `{"version":2.0,"class":"dataset"}`, "version", false},
		{"missing version", `{"class":"dataset"}`, "version", false},
		{"unknown class", `{"version":"2.0","class":"table"}`, "class", false},
		{"missing class", `{"version":"2.0"}`, "class", false},
		{"label not a string", `{"version":"2.0","class":"dataset","label":5}`, "label", false},
		{"size not a list", `{"version":"2.0","class":"dataset","size":3}`, "size", false},
		{"bad value", `{"version":"2.0","class":"dataset","value":"x"}`, "value", false},
		{"bad status", `{"version":"2.0","class":"dataset","status":5}`, "status", false},
		{"bad updated", `{"version":"2.0","class":"dataset","updated":"yesterday"}`, "updated", false},
		{"bad link", `{"version":"2.0","class":"collection","link":{"item":[1]}}`, "link.item[0]", false},
		{
			"bad nested index",
			`{"version":"2.0","class":"dataset","dimension":{"sex":{"category":{"index":"M"}}}}`,
			"dimension.sex.category.index", false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := jsonstat.Decode([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, env, "decode must not return partial results")

			var pe *jsonstat.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.path, pe.Path)
			assert.Equal(t, tt.syntax, errors.Is(err, jsonstat.ErrSyntax))
		})
	}
}

func TestDecodeRejectsNullElements(t *testing.T) {
	const head = `{"version":"2.0","class":"dataset",`
	tests := []struct {
		name  string
		doc   string
		path  string
		shape bool
	}{
		{"id", head + `"id":[null]}`, "id[0]", false},
		{"size", head + `"size":[3,null]}`, "size[1]", false},
		{"note", head + `"note":["a",null]}`, "note[1]", false},
		{"role", head + `"role":{"geo":[null]}}`, "role.geo[0]", false},
		{"link relation", `{"version":"2.0","class":"collection","link":{"item":null}}`, "link.item", false},
		{"category label", head + `"dimension":{"sex":{"category":{"label":{"M":null}}}}}`, "dimension.sex.category.label.M", false},
		{"coordinates", head + `"dimension":{"geo":{"category":{"coordinates":{"ES":[1,null]}}}}}`, "dimension.geo.category.coordinates.ES[1]", false},
		{"child", head + `"dimension":{"geo":{"category":{"child":{"EU":["ES",null]}}}}}`, "dimension.geo.category.child.EU[1]", false},
		{"sparse value", head + `"value":{"0":null,"2":5}}`, "value", true},
		{"status list", head + `"status":[null,"e"]}`, "status", true},
		{"status mapping", head + `"status":{"1":null}}`, "status", true},
		{"index mapping", head + `"dimension":{"sex":{"category":{"index":{"M":null}}}}}`, "dimension.sex.category.index", true},
		{"index list", head + `"dimension":{"sex":{"category":{"index":["M",null]}}}}`, "dimension.sex.category.index", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := jsonstat.Decode([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, env)

			var pe *jsonstat.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.path, pe.Path)

			var se *jsonstat.ShapeError
			assert.Equal(t, tt.shape, errors.As(err, &se))
			assert.Equal(t, !tt.shape, errors.Is(err, jsonstat.ErrNull))
		})
	}
}

func TestDecodeNullRoleMemberIsAbsent(t *testing.T) {
	env := decode(t, `{"version":"2.0","class":"dataset","role":{"time":null,"geo":["geo"]}}`)
	require.NotNil(t, env.Role)
	assert.Nil(t, env.Role.Time)
	assert.Equal(t, []string{"geo"}, env.Role.Geo)
}

func TestDecodeShapeErrorNamesFieldAndShapes(t *testing.T) {
	_, err := jsonstat.Decode([]byte(`{"version":"2.0","class":"dataset","dimension":{"sex":{"category":{"index":"M"}}}}`))
	var se *jsonstat.ShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "index", se.Field)
	assert.Equal(t, []string{"array", "dictionary"}, se.Tried)
}

func TestDecodeMissingRequiredIsErrRequired(t *testing.T) {
	_, err := jsonstat.Decode([]byte(`{"class":"dataset"}`))
	assert.ErrorIs(t, err, jsonstat.ErrRequired)
}

func TestDecodeDoesNotValidateAcrossFields(t *testing.T) {
	// Dataset-only members on a dimension document are accepted by Decode
	// and only rejected when narrowing.
	env := decode(t, `{
		"version":"2.0","class":"dimension",
		"id":["a"],"size":[2],"value":[1,2],
		"category":{"index":["x","y"]}
	}`)
	assert.Equal(t, []string{"id", "size", "value", "category"}, env.Fields())

	_, err := jsonstat.ToDataset(env)
	assert.ErrorIs(t, err, jsonstat.ErrClassMismatch)
}

func TestDecodeNullMembersAreAbsent(t *testing.T) {
	env := decode(t, `{"version":"2.0","class":"collection","label":null,"link":null}`)
	assert.Nil(t, env.Label)
	assert.Nil(t, env.Link)
	assert.Empty(t, env.Fields())
}

func TestDecodeIgnoresUnknownMembers(t *testing.T) {
	env := decode(t, `{"version":"2.0","class":"collection","x-vendor":{"a":1}}`)
	assert.Empty(t, env.Fields())
}

// ─── Updated ──────────────────────────────────────────────────────────────────

func TestParseUpdatedTriesDateFirst(t *testing.T) {
	tests := []struct {
		in   string
		kind jsonstat.UpdatedKind
	}{
		{"2012-11-27", jsonstat.UpdatedDate},
		{"2012-11-27T00:00:00Z", jsonstat.UpdatedDateTime},
		{"2013-05-31T22:00:00+02:00", jsonstat.UpdatedDateTime},
		{"2013-05-31T22:00:00.5-05:00", jsonstat.UpdatedDateTime},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := jsonstat.ParseUpdated(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, u.Kind)
			assert.Equal(t, tt.in, u.String(), "form and offset must be kept")
		})
	}
}

func TestParseUpdatedRejectsLocalDateTime(t *testing.T) {
	_, err := jsonstat.ParseUpdated("2013-05-31T22:00:00")
	var se *jsonstat.ShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"date", "date-time"}, se.Tried)
}
