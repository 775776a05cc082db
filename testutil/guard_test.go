package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

func TestInternalImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"proteomecore/internal/resolve", true},
		{"proteomecore/pkg/proteome", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestTransportImportForbiddenPredicate(t *testing.T) {
	for _, p := range []string{"net/http", "github.com/gorilla/mux"} {
		if !TransportImportForbidden(p) {
			t.Fatalf("%s should be forbidden", p)
		}
	}
	if TransportImportForbidden("net/url") {
		t.Fatalf("net/url is not a transport import")
	}
}

func TestAssertNoDirectImportsIgnoresTestsAndSubdirs(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, src string) {
		t.Helper()
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(src), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("x.go", "package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	write("x_test.go", "package tmp\nimport \"net/http\"\nvar _ = http.MethodGet")
	write("sub/y.go", "package sub\nimport \"net/http\"\nvar _ = http.MethodGet")
	write("notes.txt", "import \"net/http\"")
	AssertNoDirectImports(t, dir, TransportImportForbidden, "transport free")
}

func TestDirectImportViolationsReportsFile(t *testing.T) {
	dir := t.TempDir()
	src := "package tmp\nimport \"net/http\"\nvar _ = http.MethodGet"
	if err := os.WriteFile(filepath.Join(dir, "h.go"), []byte(src), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	viols, err := directImportViolations(dir, TransportImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "h.go") {
		t.Fatalf("unexpected violations: %v", viols)
	}
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, _ ...any) { r.msg = format }

func TestFailIfViolations(t *testing.T) {
	var r recordingFatal
	failIfViolations(&r, "imports", "reason", nil)
	if r.msg != "" {
		t.Fatalf("no violations must not fail")
	}
	failIfViolations(&r, "imports", "reason", []string{"a"})
	if r.msg == "" {
		t.Fatalf("expected failure")
	}
}

func TestImportViolations(t *testing.T) {
	pkgs := []*packages.Package{
		{PkgPath: "proteomecore/internal/blob", Imports: map[string]*packages.Package{"proteomecore/internal/infra/blob/fs": nil}},
		{PkgPath: "proteomecore/internal/core", Imports: map[string]*packages.Package{"proteomecore/internal/infra/blob/s3": nil}},
		{PkgPath: "proteomecore/internal/blobby", Imports: map[string]*packages.Package{"proteomecore/internal/infra/blobstore": nil}},
	}
	got := importViolations(pkgs, "proteomecore/internal/infra/blob", []string{"proteomecore/internal/blob"})
	if len(got) != 1 || !strings.HasPrefix(got[0], "proteomecore/internal/core:") {
		t.Fatalf("unexpected violations: %v", got)
	}
}

func TestAssertNoTransitiveDependencyUsesGoList(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })
	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\nproteomecore/pkg/proteome\n"), nil
	}
	AssertNoTransitiveDependency(t, "./pkg/...", InternalImportForbidden, "public model stays standalone")
}
