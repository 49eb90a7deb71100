package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testForbiddenImport = "some/forbidden/package"

type recordingFatal struct {
	msg string
}

func (r *recordingFatal) Fatalf(format string, args ...any) {
	r.msg = fmt.Sprintf(format, args...)
}

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		fn   func(string) bool
		in   string
		want bool
	}{
		{"domain", DomainImportForbidden, "mnyama/pkg/domain", true},
		{"domain version", DomainImportForbidden, "example.com/pkg/domain@v1.2.3", true},
		{"domain sub", DomainImportForbidden, "example.com/pkg/domain/sub", false},
		{"domain lookalike", DomainImportForbidden, "example.com/pkg/domainutil", false},
		{"internal", InternalImportForbidden, "mnyama/internal/core", true},
		{"internal suffix", InternalImportForbidden, "example.com/internal", false},
		{"internal none", InternalImportForbidden, "mnyama/pkg/domain", false},
		{"infra driver", InfraImportForbidden, "mnyama/internal/infra/blob/s3", true},
		{"infra root", InfraImportForbidden, "mnyama/internal/infra", true},
		{"infra facade", InfraImportForbidden, "mnyama/internal/blob", false},
		{"infra empty", InfraImportForbidden, "", false},
	}
	for _, c := range cases {
		if got := c.fn(c.in); got != c.want {
			t.Errorf("%s: predicate(%q)=%v want %v", c.name, c.in, got, c.want)
		}
	}
}

func TestDirectImportsIgnoreTestsDirsAndOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "main.go", "package tmp\nimport (\n\t\"fmt\"\n\talias \"context\"\n)\nfunc X() { fmt.Println(alias.Background()) }\n")
	writeGo(t, dir, "main_test.go", "package tmp\nimport \""+testForbiddenImport+"\"\n")
	writeGo(t, dir, "readme.txt", "import \""+testForbiddenImport+"\"")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeGo(t, filepath.Join(dir, "sub"), "sub.go", "package sub\nimport \""+testForbiddenImport+"\"\n")

	AssertNoDirectImports(t, dir, func(p string) bool { return p == testForbiddenImport }, "ignored locations")
}

func TestDirectImportsReportViolations(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "bad.go", "package tmp\nimport _ \"mnyama/internal/infra/blob/fs\"\n")

	viols, err := directImportViolations(dir, InfraImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "bad.go") {
		t.Fatalf("unexpected violations: %v", viols)
	}
	rec := &recordingFatal{}
	failIfDirectViolations(rec, "cmd goes through core", viols)
	if !strings.Contains(rec.msg, "cmd goes through core") {
		t.Fatalf("expected reason in failure, got %q", rec.msg)
	}
}

func TestDirectImportsParseAndDirErrors(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "broken.go", "package\n")
	if _, err := directImportViolations(dir, InternalImportForbidden); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := directImportViolations(filepath.Join(dir, "missing"), InternalImportForbidden); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestTransitiveViolationsUseLoader(t *testing.T) {
	prev := loadDeps
	t.Cleanup(func() { loadDeps = prev })
	loadDeps = func(string) ([]string, error) {
		return []string{"fmt", "mnyama/internal/core", "mnyama/pkg/domain"}, nil
	}

	viols, err := transitiveDependencyViolations("./...", InternalImportForbidden)
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	if len(viols) != 1 || viols[0] != "mnyama/internal/core" {
		t.Fatalf("unexpected violations: %v", viols)
	}
	rec := &recordingFatal{}
	failIfTransitiveViolations(rec, "layering", viols)
	if !strings.Contains(rec.msg, "mnyama/internal/core") {
		t.Fatalf("expected dependency in failure, got %q", rec.msg)
	}

	loadDeps = func(string) ([]string, error) { return nil, errors.New("no toolchain") }
	if _, err := transitiveDependencyViolations(".", InternalImportForbidden); err == nil {
		t.Fatalf("expected loader error")
	}
}

func TestAssertNoTransitiveDependencyOnDomain(t *testing.T) {
	AssertNoTransitiveDependency(t, "mnyama/pkg/domain", InternalImportForbidden, "domain must not reach internal packages")
}
