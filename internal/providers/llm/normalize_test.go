package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		key  string
		want string
	}{
		{name: "fenced_array", raw: "```json\n[1,2,3]\n```", key: "datasets", want: `{"datasets":[1,2,3]}`},
		{name: "fenced_untagged", raw: "Here you go:\n```\n{\"datasets\":[]}\n```\nThanks", key: "datasets", want: `{"datasets":[]}`},
		{name: "bare_object", raw: "  {\"scenarios\":[\"a\"]}\n", key: "scenarios", want: `{"scenarios":["a"]}`},
		{name: "bare_array", raw: `["a","b"]`, key: "scenarios", want: `{"scenarios":["a","b"]}`},
		{name: "array_no_key", raw: `[1]`, key: "", want: `[1]`},
		{name: "first_fence_wins", raw: "```json\n[1]\n```\n```json\n[2]\n```", key: "datasets", want: `{"datasets":[1]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, string(Normalize(tc.raw, tc.key)))
		})
	}
}

func TestBuiltinSchemas(t *testing.T) {
	ds := DatasetListSchema()
	require.Equal(t, "datasets", ds.WrapKey)
	require.NoError(t, ds.Validate([]byte(`{"datasets":[{"issueDescription":"a","actionsTaken":["b"],"resolution":"c","rca":"d"}]}`)))
	require.Error(t, ds.Validate([]byte(`{"datasets":[{"issueDescription":"a"}]}`)))
	require.Error(t, ds.Validate([]byte(`{"datasets":[{"issueDescription":"a","actionsTaken":"b","resolution":"c","rca":"d"}]}`)))
	require.Error(t, ds.Validate([]byte(`[1,2]`)))

	sc := ScenarioListSchema()
	require.NoError(t, sc.Validate([]byte(`{"scenarios":["one","two"]}`)))
	require.Error(t, sc.Validate([]byte(`{"scenarios":[1]}`)))
	require.Error(t, sc.Validate([]byte(`{`)))
}
