package fieldpath_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/fieldpath"
)

func TestParseTokens(t *testing.T) {
	cases := []struct {
		name string
		path string
		want []fieldpath.Token
	}{
		{
			name: "single key",
			path: "email",
			want: []fieldpath.Token{{Key: "email"}},
		},
		{
			name: "dotted keys",
			path: "user.address.city",
			want: []fieldpath.Token{{Key: "user"}, {Key: "address"}, {Key: "city"}},
		},
		{
			name: "bracket index",
			path: "user.superPowers[1]",
			want: []fieldpath.Token{{Key: "user"}, {Key: "superPowers"}, {Index: 1, IsIndex: true}},
		},
		{
			name: "index then key",
			path: "friends[0].name",
			want: []fieldpath.Token{{Key: "friends"}, {Index: 0, IsIndex: true}, {Key: "name"}},
		},
		{
			name: "adjacent indices",
			path: "matrix[2][3]",
			want: []fieldpath.Token{{Key: "matrix"}, {Index: 2, IsIndex: true}, {Index: 3, IsIndex: true}},
		},
		{
			name: "bare numeric segment is an index",
			path: "friends.0.name",
			want: []fieldpath.Token{{Key: "friends"}, {Index: 0, IsIndex: true}, {Key: "name"}},
		},
		{
			name: "leading zero stays a key",
			path: "codes.01",
			want: []fieldpath.Token{{Key: "codes"}, {Key: "01"}},
		},
		{
			name: "quoted key with dot",
			path: `meta["content.type"]`,
			want: []fieldpath.Token{{Key: "meta"}, {Key: "content.type"}},
		},
		{
			name: "single quoted key",
			path: "meta['x-id']",
			want: []fieldpath.Token{{Key: "meta"}, {Key: "x-id"}},
		},
		{
			name: "unquoted bracket identifier is a key",
			path: "a[b]",
			want: []fieldpath.Token{{Key: "a"}, {Key: "b"}},
		},
		{
			name: "index at the root",
			path: "[0].name",
			want: []fieldpath.Token{{Index: 0, IsIndex: true}, {Key: "name"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fieldpath.Parse(tc.path)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.path, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRejectsMalformedPaths(t *testing.T) {
	paths := []string{
		"",
		".",
		".leading",
		"a..b",
		"trailing.",
		"a[",
		"a[1",
		"a[]",
		"a[-1]",
		`a["unterminated]`,
		`a["key"x]`,
		"a[0]b",
	}

	for _, path := range paths {
		if _, err := fieldpath.Parse(path); !errors.Is(err, fieldpath.ErrInvalidPath) {
			t.Errorf("Parse(%q) = %v, want ErrInvalidPath", path, err)
		}
	}
}

func TestJoinQuotesReservedCharacters(t *testing.T) {
	cases := []struct {
		parent string
		key    string
		want   string
	}{
		{"", "name", "name"},
		{"user", "name", "user.name"},
		{"meta", "content.type", `meta["content.type"]`},
		{"meta", "a[0]", `meta["a[0]"]`},
	}

	for _, tc := range cases {
		got := fieldpath.Join(tc.parent, tc.key)
		if got != tc.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tc.parent, tc.key, got, tc.want)
		}

		tokens, err := fieldpath.Parse(got)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", got, err)
		}
		last := tokens[len(tokens)-1]
		if last.Key != tc.key {
			t.Errorf("round-trip of %q lost the key: got %q", got, last.Key)
		}
	}
}

func TestIndexAppendsBracketSegment(t *testing.T) {
	if got := fieldpath.Index("tags", 3); got != "tags[3]" {
		t.Fatalf("Index = %q, want tags[3]", got)
	}
	if got := fieldpath.Index("", 0); got != "[0]" {
		t.Fatalf("Index on empty parent = %q, want [0]", got)
	}
}
