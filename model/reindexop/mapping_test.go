package reindexop

import (
	"reflect"
	"sort"
	"testing"
)

func TestFlattenMappingsUnwrapsTypeWrapper(t *testing.T) {
	raw := map[string]interface{}{
		"_doc": map[string]interface{}{
			"_all": map[string]interface{}{"enabled": false},
			"properties": map[string]interface{}{
				"value": map[string]interface{}{"type": "boolean"},
			},
		},
	}

	got := FlattenMappings(raw)
	want := map[string]interface{}{
		"value": map[string]interface{}{"type": "boolean"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestFlattenMappingsAlreadyTypeless(t *testing.T) {
	raw := map[string]interface{}{
		"properties": map[string]interface{}{
			"name": map[string]interface{}{"type": "keyword"},
		},
	}

	got := FlattenMappings(raw)
	want := map[string]interface{}{
		"name": map[string]interface{}{"type": "keyword"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestFlattenMappingsNil(t *testing.T) {
	if got := FlattenMappings(nil); len(got) != 0 {
		t.Fatalf("expected empty map, got %#v", got)
	}
}

func TestHasAllField(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]interface{}
		want bool
	}{
		{
			name: "type wrapped with _all",
			raw: map[string]interface{}{
				"_doc": map[string]interface{}{"_all": map[string]interface{}{"enabled": true}},
			},
			want: true,
		},
		{
			name: "no _all",
			raw: map[string]interface{}{
				"_doc": map[string]interface{}{"properties": map[string]interface{}{}},
			},
			want: false,
		},
		{name: "nil", raw: nil, want: false},
	}

	for _, c := range cases {
		if got := HasAllField(c.raw); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestBooleanFieldPathsNested(t *testing.T) {
	properties := map[string]interface{}{
		"value": map[string]interface{}{"type": "boolean"},
		"nested": map[string]interface{}{
			"properties": map[string]interface{}{
				"flag": map[string]interface{}{"type": "boolean"},
				"name": map[string]interface{}{"type": "keyword"},
			},
		},
	}

	got := BooleanFieldPaths(properties)
	sort.Strings(got)
	want := []string{"nested.flag", "value"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTransformSettingsForDestinationDropsNonTransferable(t *testing.T) {
	flat := map[string]interface{}{
		"index.blocks.write":       "true",
		"index.number_of_replicas": "2",
		"index.creation_date":      "12345",
		"index.uuid":               "abc",
		"index.analysis.analyzer":  "standard",
	}

	got := TransformSettingsForDestination(flat)

	if _, ok := got["index.blocks.write"]; ok {
		t.Error("expected index.blocks.write to be dropped")
	}
	if _, ok := got["index.creation_date"]; ok {
		t.Error("expected index.creation_date to be dropped")
	}
	if _, ok := got["index.uuid"]; ok {
		t.Error("expected index.uuid to be dropped")
	}
	if got["index.number_of_replicas"] != "0" {
		t.Errorf("expected replicas forced to 0, got %v", got["index.number_of_replicas"])
	}
	if got["index.analysis.analyzer"] != "standard" {
		t.Error("expected unrelated settings to survive untouched")
	}
}
