package jsonfmt_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example/vision-batch/internal/jsonfmt"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "colon gets one trailing space",
			input: `{"k":1}`,
			want:  "{\n    \"k\": 1\n}",
		},
		{
			name:  "nested object and array",
			input: `{"a":[1,2,{"b":3}]}`,
			want: "{\n" +
				"    \"a\": [\n" +
				"        1,\n" +
				"        2,\n" +
				"        {\n" +
				"            \"b\": 3\n" +
				"        }\n" +
				"    ]\n" +
				"}",
		},
		{
			name:  "escaped quote stays inside string",
			input: `{"a":"va\"lue"}`,
			want:  "{\n    \"a\": \"va\\\"lue\"\n}",
		},
		{
			name:  "escaped backslash before quote closes string",
			input: `{"a":"x\\","b":1}`,
			want:  "{\n    \"a\": \"x\\\\\",\n    \"b\": 1\n}",
		},
		{
			name:  "structural characters inside strings are copied",
			input: `{"s":"{[a,b]:c}"}`,
			want:  "{\n    \"s\": \"{[a,b]:c}\"\n}",
		},
		{
			name:  "newlines and tabs are stripped",
			input: "{\r\n\t\"a\":1,\n\t\"b\":2\n}",
			want:  "{\n    \"a\": 1,\n    \"b\": 2\n}",
		},
		{
			name:  "existing spaces are kept",
			input: `{"a": 1}`,
			want:  "{\n    \"a\":  1\n}",
		},
		{
			name:  "empty object",
			input: `{}`,
			want:  "{\n    \n}",
		},
		{
			name:  "scalar passes through",
			input: `"plain"`,
			want:  `"plain"`,
		},
		{
			name:  "not json at all",
			input: "hello world",
			want:  "hello world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, jsonfmt.Format(tt.input))
		})
	}
}

func TestFormat_Unbalanced(t *testing.T) {
	t.Parallel()

	t.Run("extra closer drives depth negative without failing", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "{\n    \n}\n}", jsonfmt.Format(`{}}`))
	})

	t.Run("depth is not clamped at zero", func(t *testing.T) {
		t.Parallel()

		// After "}}" the depth is -2, so the next "[" only brings it back to -1.
		assert.Equal(t, "\n}\n}[\n1", jsonfmt.Format(`}}[1`))
	})

	t.Run("unclosed opener", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "{\n    \"a\": [\n        1", jsonfmt.Format(`{"a":[1`))
	})

	t.Run("unterminated string swallows structure", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "{\n    \"a:[1,2]}", jsonfmt.Format(`{"a:[1,2]}`))
	})
}

func TestFormat_PreservesCharacters(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{"a":[1,2,{"b":3}]}`,
		`[[[]],{},{"x":"y,z"}]`,
		`{"q":"say \"hi\", ok","n":null,"t":true}`,
		`}}]]{{`,
		`{"unicode":"日本語","emoji":"🙂"}`,
	}

	for _, in := range inputs {
		out := jsonfmt.Format(in)
		stripped := strings.NewReplacer("\n", "", " ", "").Replace(out)
		// Spaces inside strings are removed on both sides.
		assert.Equal(t, strings.ReplaceAll(in, " ", ""), stripped, in)
	}
}

func TestFormat_ReformatStripped(t *testing.T) {
	t.Parallel()

	compact := `{"a":[1,2,{"b":3}],"c":{"d":"e"}}`
	out := jsonfmt.Format(compact)

	stripped := strings.NewReplacer("\n", "", " ", "").Replace(out)
	require.Equal(t, compact, stripped)
	assert.Equal(t, out, jsonfmt.Format(stripped))
}

func TestFormat_Concurrent(t *testing.T) {
	t.Parallel()

	const in = `{"a":[1,2,{"b":3}]}`
	want := jsonfmt.Format(in)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = jsonfmt.Format(in)
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestFormat_Golden(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"analyze_response", "escaped_error"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			input, err := os.ReadFile(filepath.Join("testdata", name+".json"))
			require.NoError(t, err)

			g := goldie.New(t)
			g.Assert(t, name, []byte(jsonfmt.Format(string(input))))
		})
	}
}
