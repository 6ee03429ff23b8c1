package legacypath

import "testing"

func TestDecompose(t *testing.T) {
	tests := []struct {
		in   string
		want Parts
	}{
		{"", Parts{}},
		{"a", Parts{Solution: "a"}},
		{"a/b/c.txt", Parts{Solution: "a", Path: "b", File: "c.txt"}},
		{"/public/dash.wcdf", Parts{Solution: "public", File: "dash.wcdf"}},
		{"/public/sales/q1/dash.wcdf", Parts{Solution: "public", Path: "sales/q1", File: "dash.wcdf"}},
		{"public/folder/", Parts{Solution: "public", Path: "folder"}},
		{"public//folder", Parts{Solution: "public", Path: "folder"}},
		{"public/./folder/../other", Parts{Solution: "public", Path: "other"}},
		{"/", Parts{}},
		{"//", Parts{}},
		{"dash.wcdf", Parts{File: "dash.wcdf"}},
		{"a/b.", Parts{Solution: "a", Path: "b."}},
		{"a/.hidden", Parts{Solution: "a", File: ".hidden"}},
	}

	for _, tt := range tests {
		got := Decompose(tt.in)
		if got != tt.want {
			t.Errorf("Decompose(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

// Removal is literal, so a solution name repeated inside later segments is
// removed there too.
func TestDecompose_LiteralRemoval(t *testing.T) {
	got := Decompose("x/yx/z")
	want := Parts{Solution: "x", Path: "y/z"}
	if got != want {
		t.Errorf("Decompose(x/yx/z) = %+v, want %+v", got, want)
	}

	got = Decompose("a/c.txt/c.txt")
	want = Parts{Solution: "a", File: "c.txt"}
	if got != want {
		t.Errorf("Decompose(a/c.txt/c.txt) = %+v, want %+v", got, want)
	}
}

func TestDecompose_IdempotentOnJoin(t *testing.T) {
	for _, in := range []string{
		"a/b/c.txt",
		"/public/sales/q1/dash.wcdf",
		"home/admin/reports",
		"solution/path/with/many/levels/file.xcdf",
	} {
		first := Decompose(in)
		second := Decompose(first.Join())
		if first != second {
			t.Errorf("Decompose(Join(Decompose(%q))) = %+v, want %+v", in, second, first)
		}
	}
}

func TestParts_HasFile(t *testing.T) {
	if !Decompose("a/b.txt").HasFile() {
		t.Error("Expected file for a/b.txt")
	}
	if Decompose("a/b").HasFile() {
		t.Error("Expected no file for a/b")
	}
}
