package fieldpath_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/fieldpath"
)

func sampleTree() map[string]any {
	return map[string]any{
		"user": map[string]any{
			"name": "Jason",
			"superPowers": []any{
				map[string]any{"name": "flight"},
				map[string]any{"name": "invisibility"},
			},
		},
		"tags":  []any{"alpha", "beta"},
		"count": 2,
	}
}

func TestGetResolvesNestedPaths(t *testing.T) {
	tree := sampleTree()

	cases := []struct {
		path string
		want any
	}{
		{"user.name", "Jason"},
		{"user.superPowers[1].name", "invisibility"},
		{"user.superPowers.1.name", "invisibility"},
		{"tags[0]", "alpha"},
		{"count", 2},
	}

	for _, tc := range cases {
		got, ok := fieldpath.Get(tree, tc.path)
		if !ok {
			t.Fatalf("Get(%q) reported missing", tc.path)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("Get(%q) mismatch (-want +got):\n%s", tc.path, diff)
		}
	}
}

func TestGetMissingIntermediates(t *testing.T) {
	tree := sampleTree()

	paths := []string{
		"user.address.city",
		"user.superPowers[9]",
		"user.name.first",
		"tags[2]",
		"missing",
		"user.superPowers[0].level",
	}

	for _, path := range paths {
		if v, ok := fieldpath.Get(tree, path); ok {
			t.Errorf("Get(%q) = %v, want missing", path, v)
		}
	}
}

func TestGetDistinguishesNilLeafFromMissing(t *testing.T) {
	tree := map[string]any{"middle": nil}

	v, ok := fieldpath.Get(tree, "middle")
	if !ok || v != nil {
		t.Fatalf("Get(middle) = (%v, %v), want explicit nil", v, ok)
	}
	if _, ok := fieldpath.Get(tree, "other"); ok {
		t.Fatal("Get(other) resolved an absent key")
	}
}

func TestSetCreatesIntermediatesLazily(t *testing.T) {
	root, err := fieldpath.Set(map[string]any{}, "user.superPowers[1].name", "x-ray vision")
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	want := map[string]any{
		"user": map[string]any{
			"superPowers": []any{
				nil,
				map[string]any{"name": "x-ray vision"},
			},
		},
	}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestSetDoesNotMutateInput(t *testing.T) {
	before := sampleTree()
	snapshot := fieldpath.Clone(before)

	after, err := fieldpath.Set(before, "user.superPowers[0].name", "telekinesis")
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if diff := cmp.Diff(snapshot, before); diff != "" {
		t.Fatalf("input tree mutated (-want +got):\n%s", diff)
	}
	got, _ := fieldpath.Get(after, "user.superPowers[0].name")
	if got != "telekinesis" {
		t.Fatalf("new tree missing written value, got %v", got)
	}
}

func TestSetSharesUntouchedBranches(t *testing.T) {
	before := sampleTree()
	after, err := fieldpath.Set(before, "user.name", "Daria")
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	beforeTags := before["tags"].([]any)
	afterTags := after["tags"].([]any)
	if &beforeTags[0] != &afterTags[0] {
		t.Fatal("untouched branch was copied instead of shared")
	}
}

func TestSetReplacesScalarIntermediate(t *testing.T) {
	root := map[string]any{"user": "just a string"}

	root, err := fieldpath.Set(root, "user.name", "Jo")
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	want := map[string]any{"user": map[string]any{"name": "Jo"}}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestSetGrowsSliceWithNilGap(t *testing.T) {
	root := map[string]any{"tags": []any{"alpha"}}

	root, err := fieldpath.Set(root, "tags[3]", "delta")
	if err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	want := map[string]any{"tags": []any{"alpha", nil, nil, "delta"}}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	paths := []string{
		"plain",
		"nested.deeply.value",
		"list[0]",
		"list[2].inner[1]",
		`quoted["dot.key"].leaf`,
		"mixed.0.tail",
	}

	root := map[string]any{}
	for i, path := range paths {
		var err error
		root, err = fieldpath.Set(root, path, i)
		if err != nil {
			t.Fatalf("Set(%q) returned error: %v", path, err)
		}
	}
	for i, path := range paths {
		got, ok := fieldpath.Get(root, path)
		if !ok {
			t.Fatalf("Get(%q) reported missing after Set", path)
		}
		if got != i {
			t.Fatalf("Get(%q) = %v, want %d", path, got, i)
		}
	}
}

func TestRemoveDeletesMapLeaf(t *testing.T) {
	tree := sampleTree()

	after, err := fieldpath.Remove(tree, "user.name")
	if err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if fieldpath.Exists(after, "user.name") {
		t.Fatal("removed path still resolves")
	}
	if !fieldpath.Exists(after, "user.superPowers[0].name") {
		t.Fatal("sibling path lost during removal")
	}
	if !fieldpath.Exists(tree, "user.name") {
		t.Fatal("input tree mutated by Remove")
	}
}

func TestRemoveSplicesSliceElement(t *testing.T) {
	tree := map[string]any{"tags": []any{"alpha", "beta", "gamma"}}

	after, err := fieldpath.Remove(tree, "tags[1]")
	if err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	want := map[string]any{"tags": []any{"alpha", "gamma"}}
	if diff := cmp.Diff(want, after); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveMissingPathIsNoop(t *testing.T) {
	tree := sampleTree()

	after, err := fieldpath.Remove(tree, "user.address.city")
	if err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if diff := cmp.Diff(tree, after); diff != "" {
		t.Fatalf("no-op removal changed the tree (-want +got):\n%s", diff)
	}
}

func TestGetOrFallsBack(t *testing.T) {
	tree := sampleTree()

	if got := fieldpath.GetOr(tree, "user.name", "anon"); got != "Jason" {
		t.Fatalf("GetOr hit = %v, want Jason", got)
	}
	if got := fieldpath.GetOr(tree, "user.nickname", "anon"); got != "anon" {
		t.Fatalf("GetOr miss = %v, want anon", got)
	}
}
