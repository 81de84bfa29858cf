package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

type recordingFatal struct {
	msg string
}

func (r *recordingFatal) Fatalf(format string, _ ...any) { r.msg = format }

func TestDomainImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"example.com/mod/pkg/domain", true},
		{"example.com/mod/pkg/domain@v1", true},
		{"example.com/mod/pkg/notdomain", false},
	}
	for _, c := range cases {
		if got := DomainImportForbidden(c.in); got != c.want {
			t.Fatalf("DomainImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestInternalImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"example.com/mod/internal/x", true},
		{"ticketdesk/internal/core", true},
		{"example.com/mod/pkg/x", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestAssertNoDirectImportsIgnoresTestFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "x.go"), []byte("package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "x_test.go"), []byte("package tmp\nimport \"forbidden/pkg\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, func(p string) bool { return p == "forbidden/pkg" }, "none")
}

func TestDirectImportViolationsReportsFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.go"), []byte("package tmp\nimport _ \"forbidden/pkg\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	viols, err := directImportViolations(dir, func(p string) bool { return p == "forbidden/pkg" })
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "bad.go") {
		t.Fatalf("unexpected violations %v", viols)
	}
	rec := &recordingFatal{}
	failIfDirectViolations(rec, "reason", viols)
	if rec.msg == "" {
		t.Fatalf("expected fatal on violations")
	}
}

func TestTransitiveViolationsUseLoader(t *testing.T) {
	orig := loadPackages
	t.Cleanup(func() { loadPackages = orig })

	dep := &packages.Package{PkgPath: "example.com/mod/internal/secret", Imports: map[string]*packages.Package{}}
	root := &packages.Package{PkgPath: "example.com/mod/pkg/api", Imports: map[string]*packages.Package{dep.PkgPath: dep}}
	loadPackages = func(packages.LoadMode, string) ([]*packages.Package, error) {
		return []*packages.Package{root}, nil
	}
	viols, err := transitiveDependencyViolations("./...", InternalImportForbidden)
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	if len(viols) != 1 || viols[0] != dep.PkgPath {
		t.Fatalf("unexpected violations %v", viols)
	}

	loadPackages = func(packages.LoadMode, string) ([]*packages.Package, error) {
		return nil, errors.New("boom")
	}
	if _, err := transitiveDependencyViolations("./...", InternalImportForbidden); err == nil {
		t.Fatalf("expected loader error")
	}
}

func TestImporterViolations(t *testing.T) {
	orig := loadPackages
	t.Cleanup(func() { loadPackages = orig })

	infra := &packages.Package{PkgPath: "m/internal/infra/docstore/fs"}
	facade := &packages.Package{PkgPath: "m/internal/docstore", Imports: map[string]*packages.Package{infra.PkgPath: infra}}
	leaky := &packages.Package{PkgPath: "m/internal/core", Imports: map[string]*packages.Package{infra.PkgPath: infra}}
	loadPackages = func(packages.LoadMode, string) ([]*packages.Package, error) {
		return []*packages.Package{infra, facade, leaky}, nil
	}
	viols, err := importerViolations("./...", "m/internal/infra/docstore", []string{"m/internal/docstore"})
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	if len(viols) != 1 || !strings.HasPrefix(viols[0], "m/internal/core: ") {
		t.Fatalf("unexpected violations %v", viols)
	}
}
