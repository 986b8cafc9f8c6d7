package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/tags"
	"github.com/starford/folio/internal/testutil"
)

func seedCatalog(t *testing.T, root string) {
	t.Helper()
	testutil.WriteFile(t, root, "new.yaml", "name: new.pdf\nmd5: h-new\npubdate: 2023-01-01\ntags: [project:alpha:draft, work]\n")
	testutil.WriteFile(t, root, "old.yaml", "name: old.pdf\nmd5: h-old\npubdate: 2022-05-05\ntags: [work]\nids: [isbn:42]\n")
	testutil.WriteFile(t, root, "sub/undated.yaml", "name: undated.pdf\nmd5: h-undated\ntags: [project:alpha]\nauthors: [Jane Doe]\n")
}

func readOutput(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func TestBuildAggregate(t *testing.T) {
	root, svc := testService(t)
	seedCatalog(t, root)

	agg, err := BuildAggregate(svc.store, svc.logger)
	if err != nil {
		t.Fatalf("BuildAggregate: %v", err)
	}
	if len(agg.Docs) != 3 {
		t.Fatalf("len(docs) = %d, want 3", len(agg.Docs))
	}

	want := []string{"author:Jane Doe", "project:alpha", "project:alpha:draft", "work"}
	if strings.Join(agg.Tags(), "|") != strings.Join(want, "|") {
		t.Errorf("tags = %v, want %v", agg.Tags(), want)
	}
	if n := len(agg.TagMap["work"]); n != 2 {
		t.Errorf("work docs = %d, want 2", n)
	}
	// Exact tag membership only: the draft doc is not listed under its ancestor.
	if n := len(agg.TagMap["project:alpha"]); n != 1 {
		t.Errorf("project:alpha docs = %d, want 1", n)
	}
	if _, ok := agg.TagMap["project"]; ok {
		t.Error("ancestor tags must not get their own entry")
	}

	for _, id := range []string{"h-new", "h-old", "isbn:42", "h-undated"} {
		if agg.IDMap[id] == nil {
			t.Errorf("IDMap missing %q", id)
		}
	}
	if got := agg.IDMap["h-undated"].Path; got != "sub/undated.pdf" {
		t.Errorf("path = %q, want sub/undated.pdf", got)
	}
	if got := agg.IDMap["isbn:42"].Path; got != "old.pdf" {
		t.Errorf("path = %q, want old.pdf", got)
	}
}

func TestBuildAggregate_DuplicateHashLastWins(t *testing.T) {
	root, svc := testService(t)
	testutil.WriteFile(t, root, "a.yaml", "name: a.pdf\nmd5: same\ntags: []\n")
	testutil.WriteFile(t, root, "b.yaml", "name: b.pdf\nmd5: same\ntags: []\n")

	agg, err := BuildAggregate(svc.store, svc.logger)
	if err != nil {
		t.Fatalf("BuildAggregate: %v", err)
	}
	if got := agg.IDMap["same"].Name; got != "b.pdf" {
		t.Errorf("IDMap[same] = %q, want the last aggregated b.pdf", got)
	}
	if len(agg.Docs) != 2 {
		t.Errorf("both documents should stay listed, got %d", len(agg.Docs))
	}
}

func TestBuildAggregate_InvalidRecords(t *testing.T) {
	cases := map[string]string{
		"missing tags": "name: a.pdf\nmd5: x\n",
		"missing name": "md5: x\ntags: [a]\n",
		"bad yaml":     "name: [oops\n",
		"bad tags":     "name: a.pdf\ntags: {a: b}\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			root, svc := testService(t)
			testutil.WriteFile(t, root, "doc.yaml", content)
			if _, err := BuildAggregate(svc.store, svc.logger); err == nil {
				t.Error("expected error")
			}
		})
	}

	root, svc := testService(t)
	testutil.WriteFile(t, root, "doc.yaml", "name: a.pdf\n")
	_, err := BuildAggregate(svc.store, svc.logger)
	if !errors.Is(err, apperr.ErrInvalidRecord) {
		t.Errorf("err = %v, want ErrInvalidRecord", err)
	}
}

func TestIndex_WritesAllPages(t *testing.T) {
	root, svc := testService(t)
	seedCatalog(t, root)

	rep, err := svc.Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if rep.Documents != 3 || rep.Tags != 4 {
		t.Errorf("report = %+v", rep)
	}

	rootPage := readOutput(t, root, RootIndexFile)
	for _, tag := range []string{"work", "project:alpha", "project:alpha:draft", "author:Jane Doe"} {
		page := readOutput(t, root, tags.URL(tag))
		if !strings.Contains(page, "Documents with") {
			t.Errorf("%s: header missing", tag)
		}
		if !strings.Contains(page, `href="../index/style.css"`) {
			t.Errorf("%s: tag pages should link one level up", tag)
		}
		// Every document on a tag page is on the root page too.
		for _, name := range []string{"new.pdf", "old.pdf", "undated.pdf"} {
			if strings.Contains(page, ">"+name+"<") && !strings.Contains(rootPage, ">"+name+"<") {
				t.Errorf("%s listed under %s but not in root index", name, tag)
			}
		}
	}

	work := readOutput(t, root, "index/work.html")
	if !strings.Contains(work, ">new.pdf<") || !strings.Contains(work, ">old.pdf<") || strings.Contains(work, ">undated.pdf<") {
		t.Errorf("work page membership wrong:\n%s", work)
	}

	for _, name := range []string{render.StyleFile, render.TagsFile} {
		if _, err := os.Stat(filepath.Join(root, OutputDir, name)); err != nil {
			t.Errorf("asset %s not copied: %v", name, err)
		}
	}
}

func TestIndex_RootOrder(t *testing.T) {
	root, svc := testService(t)
	seedCatalog(t, root)
	if _, err := svc.Index(context.Background()); err != nil {
		t.Fatalf("Index: %v", err)
	}

	page := readOutput(t, root, RootIndexFile)
	iu := strings.Index(page, ">undated.pdf<")
	iold := strings.Index(page, ">old.pdf<")
	inew := strings.Index(page, ">new.pdf<")
	if !(iu >= 0 && iu < iold && iold < inew) {
		t.Errorf("order undated@%d old@%d new@%d, want ascending", iu, iold, inew)
	}
	if !strings.Contains(page, `href="./sub/undated.pdf"`) {
		t.Error("root page should link documents relative to the root")
	}
}

func TestIndex_Rerun(t *testing.T) {
	root, svc := testService(t)
	seedCatalog(t, root)
	testutil.WriteFile(t, root, "index/style.css", "stale")

	for i := 0; i < 2; i++ {
		if _, err := svc.Index(context.Background()); err != nil {
			t.Fatalf("Index #%d: %v", i, err)
		}
	}
	if css := readOutput(t, root, "index/style.css"); css == "stale" {
		t.Error("style.css should be overwritten")
	}
}

func TestIndex_AbortsOnInvalidRecord(t *testing.T) {
	root, svc := testService(t)
	testutil.WriteFile(t, root, "doc.yaml", "md5: x\n")
	if _, err := svc.Index(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(filepath.Join(root, RootIndexFile)); !os.IsNotExist(err) {
		t.Error("no index should be written when aggregation fails")
	}
}

func TestIndex_UpdatesSnapshot(t *testing.T) {
	root, store := testutil.TestCatalog(t)
	r, _ := render.New(render.DefaultAssets())
	db := testutil.TestSnapshot(t)
	svc := NewService(store, r, db, testutil.DiscardLogger())
	seedCatalog(t, root)

	if _, err := svc.Index(context.Background()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	row, err := db.Lookup("isbn:42")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if row.Path != "old.pdf" {
		t.Errorf("path = %q", row.Path)
	}
}

func TestAddThenIndex(t *testing.T) {
	root, svc := testService(t)
	t.Chdir(root)
	testutil.WriteFile(t, root, "2020-report.pdf", "r")
	if _, err := svc.Add(context.Background(), []string{"2020-report.pdf"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	rep, err := svc.Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if rep.Documents != 1 || rep.Tags != 0 {
		t.Errorf("report = %+v", rep)
	}
}

func TestIndex_NestedTagPageLinks(t *testing.T) {
	root, svc := testService(t)
	testutil.WriteFile(t, root, "a.yaml", "name: a.pdf\nmd5: ha\ntags: [papers/2020]\n")

	if _, err := svc.Index(context.Background()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	page := readOutput(t, root, tags.URL("papers/2020"))
	for _, want := range []string{`href="../../index/style.css"`, `href="../../a.pdf"`} {
		if !strings.Contains(page, want) {
			t.Errorf("nested tag page missing %q", want)
		}
	}
}
