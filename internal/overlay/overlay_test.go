package overlay

import (
	"strings"
	"testing"
)

const previewDoc = `<html><body>
<div id="page-1" class="report-page"><h2>פרטי הנכס</h2><p class="intro">טקסט</p></div>
<div id="page-2" class="report-page"><h3 class="title">שומה</h3><p>סכום</p></div>
</body></html>`

const exportDoc = `<html><body>
<div class="cover-page"><h1>שער</h1></div>
<div class="report-page"><h2>פרטי הנכס</h2><p class="intro">טקסט</p></div>
<div class="report-page"><h3 class="title">שומה</h3><p>סכום</p></div>
</body></html>`

func TestApplyPreviewScopedSelector(t *testing.T) {
	edits := map[string]string{"page-2 > .title": "ערך מעודכן"}

	out, err := Apply(previewDoc, edits, ModePreview, nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !strings.Contains(out, "ערך מעודכן") {
		t.Errorf("edit not applied: %s", out)
	}
	if strings.Contains(out, ">שומה<") {
		t.Errorf("original content survived the edit")
	}
	if !strings.Contains(out, "פרטי הנכס") {
		t.Errorf("unrelated page was touched")
	}
}

func TestApplyExportTranslatesPageIndex(t *testing.T) {
	// Export documents have no page ids; logical page 2 is the second
	// content page, cover excluded.
	edits := map[string]string{"page-2 > .title": "ערך מעודכן"}

	out, err := Apply(exportDoc, edits, ModeExport, nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !strings.Contains(out, "ערך מעודכן") {
		t.Errorf("edit not applied in export mode: %s", out)
	}
	if !strings.Contains(out, "שער") {
		t.Errorf("cover page lost")
	}
}

func TestApplyFallsBackToTrailingFragment(t *testing.T) {
	// Page 9 does not exist; the trailing fragment still matches.
	edits := map[string]string{"page-9 > .intro": "חדש"}

	out, err := Apply(previewDoc, edits, ModePreview, nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !strings.Contains(out, "חדש") {
		t.Errorf("whole-document fallback did not apply: %s", out)
	}
}

func TestApplySkipsUnmatchedSelector(t *testing.T) {
	edits := map[string]string{"page-1 > .no-such-class": "x"}

	out, err := Apply(previewDoc, edits, ModePreview, nil)
	if err != nil {
		t.Fatalf("unmatched selector must not fail: %v", err)
	}
	if !strings.Contains(out, "טקסט") {
		t.Errorf("document was altered by an unmatched edit")
	}
}

func TestApplyNoEditsPassthrough(t *testing.T) {
	out, err := Apply(previewDoc, nil, ModePreview, nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if out != previewDoc {
		t.Errorf("document changed with no edits")
	}
}

func TestApplyPlainSelector(t *testing.T) {
	edits := map[string]string{".intro": "<b>מודגש</b>"}

	out, err := Apply(previewDoc, edits, ModePreview, nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !strings.Contains(out, "<b>מודגש</b>") {
		t.Errorf("plain selector edit not applied: %s", out)
	}
}

func TestParseMode(t *testing.T) {
	if mode, err := ParseMode(""); err != nil || mode != ModePreview {
		t.Errorf("empty mode should default to preview, got %v %v", mode, err)
	}
	if mode, err := ParseMode("export"); err != nil || mode != ModeExport {
		t.Errorf("export mode not accepted, got %v %v", mode, err)
	}
	if _, err := ParseMode("draft"); err == nil {
		t.Errorf("unknown mode accepted")
	}
}
