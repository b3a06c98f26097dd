// Package overlay re-applies the appraiser's manual report edits onto
// freshly assembled HTML. Each edit is keyed by a selector string and
// carries the replacement inner HTML for the matched element.
package overlay

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Mode selects how page prefixes in selectors are resolved. Preview keeps
// the editor's logical page ids; export renders the cover as a separate
// section, so logical page numbers shift against the content-page list.
type Mode string

const (
	ModePreview Mode = "preview"
	ModeExport  Mode = "export"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModePreview, "":
		return ModePreview, nil
	case ModeExport:
		return ModeExport, nil
	}
	return "", fmt.Errorf("unknown report mode %q", raw)
}

// pagePrefix matches the leading "page-N" token of an edit selector, with an
// optional child combinator before the relative path.
var pagePrefix = regexp.MustCompile(`^page-(\d+)\s*(?:>\s*)?(.*)$`)

// Apply replaces the inner HTML of every element matched by an edit
// selector. Selectors that match nothing anywhere are logged and skipped;
// a stale edit must never block report delivery.
func Apply(input string, edits map[string]string, mode Mode, log *slog.Logger) (string, error) {
	if len(edits) == 0 {
		return input, nil
	}
	if log == nil {
		log = slog.Default()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return "", fmt.Errorf("parse report html: %w", err)
	}

	selectors := make([]string, 0, len(edits))
	for selector := range edits {
		selectors = append(selectors, selector)
	}
	sort.Strings(selectors)

	for _, selector := range selectors {
		target := locate(doc, selector, mode)
		if target == nil || target.Length() == 0 {
			log.Warn("custom edit selector matched nothing, skipping",
				"selector", selector, "mode", string(mode))
			continue
		}
		target.SetHtml(edits[selector])
	}

	rendered, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialize report html: %w", err)
	}
	return rendered, nil
}

func locate(doc *goquery.Document, selector string, mode Mode) *goquery.Selection {
	if match := pagePrefix.FindStringSubmatch(selector); match != nil {
		page, _ := strconv.Atoi(match[1])
		relative := strings.TrimSpace(match[2])

		scope := pageScope(doc, page, mode)
		if scope.Length() > 0 {
			if relative == "" {
				return scope
			}
			if found := scope.Find(relative); found.Length() > 0 {
				return found
			}
		}
		// Scoped lookup failed; try the trailing fragment against the
		// whole document before giving up.
		return doc.Find(trailingFragment(selector))
	}

	if found := doc.Find(selector); found.Length() > 0 {
		return found
	}
	return doc.Find(trailingFragment(selector))
}

// pageScope resolves a logical page number to its element. Preview documents
// carry the logical id directly; export documents list content pages in
// order with the cover outside the list, so logical page N is the Nth
// content page.
func pageScope(doc *goquery.Document, page int, mode Mode) *goquery.Selection {
	if mode == ModeExport {
		pages := doc.Find(".report-page")
		if page < 1 || page > pages.Length() {
			return pages.Slice(0, 0)
		}
		return pages.Slice(page-1, page)
	}
	return doc.Find(fmt.Sprintf("#page-%d", page))
}

// trailingFragment returns the last combinator segment of a selector, e.g.
// "page-2 > .details > h3" yields "h3".
func trailingFragment(selector string) string {
	parts := strings.Split(selector, ">")
	return strings.TrimSpace(parts[len(parts)-1])
}
