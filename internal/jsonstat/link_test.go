package jsonstat_test

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derickschaefer/jstat/internal/jsonstat"
)

func TestLinkShapeResolution(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		typed bool
	}{
		{"jsonstat link", `{"class":"dataset","href":"https://x/oecd.json","label":"OECD"}`, false},
		{"href only", `{"href":"https://x/a.json"}`, false},
		{"empty object", `{}`, false},
		{"type and href only", `{"type":"text/html","href":"https://x/"}`, true},
		{"type and href with label", `{"type":"text/html","href":"https://x/","label":"Home"}`, false},
		{"type and href with extension", `{"type":"text/csv","href":"https://x/a.csv","extension":{}}`, false},
		{"unknown class falls back", `{"class":"table","type":"text/html","href":"https://x/"}`, true},
		{"type without href", `{"type":"text/html"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l jsonstat.Link
			require.NoError(t, json.Unmarshal([]byte(tt.in), &l))
			if tt.typed {
				require.NotNil(t, l.Other)
				assert.Nil(t, l.JSONStat)
			} else {
				require.NotNil(t, l.JSONStat)
				assert.Nil(t, l.Other)
			}
		})
	}
}

func TestLinkRejectsUnresolvable(t *testing.T) {
	for _, in := range []string{`"https://x/"`, `[]`, `{"class":"table"}`, `{"class":"table","type":1,"href":"h"}`} {
		t.Run(in, func(t *testing.T) {
			var l jsonstat.Link
			err := l.UnmarshalJSON([]byte(in))
			var se *jsonstat.ShapeError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "link", se.Field)
			assert.Equal(t, []string{"jsonstat", "typed"}, se.Tried)
		})
	}
}

func TestLinkEncodesOnlyPresentMembers(t *testing.T) {
	for _, in := range []string{
		`{"href":"https://x/a.json"}`,
		`{"class":"collection","href":"https://x/","label":"All","extension":{"n":3}}`,
		`{"type":"text/html","href":"https://x/"}`,
	} {
		var l jsonstat.Link
		require.NoError(t, json.Unmarshal([]byte(in), &l))
		out, err := json.Marshal(l)
		require.NoError(t, err)
		assert.JSONEq(t, in, string(out))
	}
}

func TestEmptyLinkCannotEncode(t *testing.T) {
	_, err := json.Marshal(jsonstat.Link{})
	assert.Error(t, err)
}

func TestLinkHref(t *testing.T) {
	href := "https://x/a.json"
	assert.Equal(t, href, jsonstat.Link{JSONStat: &jsonstat.JSONStatLink{Href: &href}}.Href())
	assert.Equal(t, href, jsonstat.Link{Other: &jsonstat.TypedLink{Type: "text/html", Href: href}}.Href())
	assert.Equal(t, "", jsonstat.Link{JSONStat: &jsonstat.JSONStatLink{}}.Href())
}
