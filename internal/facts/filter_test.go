package facts

import "testing"

func TestFilterTablesByFiles(t *testing.T) {
	tables := Tables{
		Files: []FileRow{
			{Path: "a.yaml"},
			{Path: "b.yaml"},
		},
		Properties: []PropertyRow{{Name: "reset"}},
		Instances: []InstanceRow{
			{Path: "a", File: "a.yaml"},
			{Path: "b", File: "b.yaml"},
		},
		Values: []ValueRow{
			{Path: "a", Property: "name", File: "a.yaml"},
			{Path: "b", Property: "name", File: "b.yaml"},
		},
	}

	files := map[string]bool{"a.yaml": true}
	filtered := FilterTablesByFiles(tables, files)

	if len(filtered.Files) != 1 || filtered.Files[0].Path != "a.yaml" {
		t.Fatalf("expected only a.yaml file row, got %#v", filtered.Files)
	}
	if len(filtered.Instances) != 1 || filtered.Instances[0].File != "a.yaml" {
		t.Fatalf("expected only a.yaml instance rows, got %#v", filtered.Instances)
	}
	if len(filtered.Values) != 1 || filtered.Values[0].File != "a.yaml" {
		t.Fatalf("expected only a.yaml value rows, got %#v", filtered.Values)
	}
	if len(filtered.Properties) != 1 {
		t.Fatalf("expected the catalog to be kept, got %#v", filtered.Properties)
	}
}

func TestFilterDeltaByFilesEmpty(t *testing.T) {
	delta := Delta{
		Added: Tables{
			Files: []FileRow{{Path: "a.yaml"}},
		},
		Removed: Tables{
			Files: []FileRow{{Path: "b.yaml"}},
		},
	}

	filtered := FilterDeltaByFiles(delta, map[string]bool{})
	if len(filtered.Added.Files) != 0 || len(filtered.Removed.Files) != 0 {
		t.Fatalf("expected empty delta, got %#v", filtered)
	}
}
