package report

import (
	"fmt"
	"html/template"
	"strings"

	"shamay/api/internal/hebrew"
	"shamay/api/internal/store"
)

// BlockKind classifies a content block for the pagination heuristic.
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockParagraph
	BlockTable
	BlockImage
)

// Block is one indivisible piece of chapter content. Height is an estimate
// in pixels; pagination never splits inside a block.
type Block struct {
	Kind   BlockKind
	HTML   template.HTML
	Height int
}

// Chapter is a titled run of blocks. The title is itself the first block so
// a page break can land before it.
type Chapter struct {
	Title  string
	Blocks []Block
}

// Estimated block heights in pixels at 96dpi, tuned against rendered output.
const (
	headingHeight   = 56
	tableBaseHeight = 46
	tableRowHeight  = 34
	imageHeight     = 300
	lineHeight      = 30
	charsPerLine    = 90
)

// BuildChapters produces the report body in its fixed order. Chapters whose
// data is entirely absent still render, showing placeholders; a partial
// report mid-wizard is the normal case.
func BuildChapters(fields Fields, record store.FullRecord) []Chapter {
	chapters := []Chapter{
		propertyDetailsChapter(fields),
		landRegistryChapter(fields),
		permitChapter(fields),
		conditionChapter(fields),
	}
	if len(record.Measurements) > 0 || len(record.Images) > 0 {
		chapters = append(chapters, measurementsChapter(record))
	}
	if len(record.Screenshots) > 0 {
		chapters = append(chapters, locationChapter(record.Screenshots))
	}
	if len(record.Valuation.Comparables) > 0 {
		chapters = append(chapters, comparablesChapter(record.Valuation.Comparables))
	}
	chapters = append(chapters, valuationChapter(fields))
	if len(record.Valuation.Recommendations) > 0 {
		chapters = append(chapters, recommendationsChapter(record.Valuation.Recommendations))
	}
	chapters = append(chapters, signatureChapter(fields))
	return chapters
}

func heading(title string) Block {
	return Block{
		Kind:   BlockHeading,
		HTML:   template.HTML(fmt.Sprintf(`<h2 class="chapter-title">%s</h2>`, esc(title))),
		Height: headingHeight,
	}
}

func paragraph(text string) Block {
	lines := len([]rune(text))/charsPerLine + 1
	return Block{
		Kind:   BlockParagraph,
		HTML:   template.HTML(fmt.Sprintf(`<p>%s</p>`, esc(text))),
		Height: lines * lineHeight,
	}
}

// detailsTable renders a two-column label/value table, the dominant layout
// of the report.
func detailsTable(class string, rows [][2]string) Block {
	var b strings.Builder
	fmt.Fprintf(&b, `<table class="details %s">`, class)
	for _, row := range rows {
		fmt.Fprintf(&b, `<tr><th>%s</th><td>%s</td></tr>`, esc(row[0]), esc(row[1]))
	}
	b.WriteString(`</table>`)
	return Block{
		Kind:   BlockTable,
		HTML:   template.HTML(b.String()),
		Height: tableBaseHeight + len(rows)*tableRowHeight,
	}
}

func imageBlock(title, url string) Block {
	var b strings.Builder
	b.WriteString(`<figure class="report-image">`)
	fmt.Fprintf(&b, `<img src="%s" alt="%s">`, esc(url), esc(title))
	if title != "" {
		fmt.Fprintf(&b, `<figcaption>%s</figcaption>`, esc(title))
	}
	b.WriteString(`</figure>`)
	return Block{
		Kind:   BlockImage,
		HTML:   template.HTML(b.String()),
		Height: imageHeight,
	}
}

func propertyDetailsChapter(f Fields) Chapter {
	return Chapter{
		Title: "פרטי הנכס",
		Blocks: []Block{
			heading("פרטי הנכס"),
			detailsTable("property", [][2]string{
				{"כתובת", f.Address},
				{"שכונה", f.Neighborhood},
				{"מספר חדרים", f.RoomsDisplay},
				{"קומה", f.FloorDisplay},
				{"שטח רשום", f.RegisteredArea},
				{"שטח בנוי", f.BuiltArea},
				{"שטח מרפסת", f.BalconyArea},
				{"מחיר למ\"ר", f.PricePerSqm},
				{"תאריך ביקור", f.VisitDateLong},
				{"התאריך הקובע", f.EffectiveDate},
			}),
		},
	}
}

func landRegistryChapter(f Fields) Chapter {
	return Chapter{
		Title: "פרטי רישום",
		Blocks: []Block{
			heading("פרטי רישום"),
			detailsTable("registry", [][2]string{
				{"גוש", f.Gush},
				{"חלקה", f.Chelka},
				{"תת חלקה", f.SubChelka},
				{"לשכת רישום", f.RegistrationOffice},
				{"תאריך הפקת נסח", f.TabuExtractDate},
				{"שטח חלקה כולל", f.TotalPlotArea},
			}),
		},
	}
}

func permitChapter(f Fields) Chapter {
	return Chapter{
		Title: "רישוי ותכנון",
		Blocks: []Block{
			heading("רישוי ותכנון"),
			detailsTable("permit", [][2]string{
				{"מספר היתר", f.PermitNumber},
				{"תאריך היתר", f.PermitDate},
				{"שימוש מותר", f.PermittedUsage},
				{"ועדה מקומית", f.LocalCommitteeName},
				{"תאריך צו בית משותף", f.OrderIssueDate},
				{"מספר תתי חלקות", f.TotalSubPlots},
				{"מספר קומות בבניין", f.BuildingFloors},
			}),
		},
	}
}

func conditionChapter(f Fields) Chapter {
	blocks := []Block{heading("מצב הנכס")}
	blocks = append(blocks, detailsTable("condition", [][2]string{
		{"סוג הבניין", f.BuildingType},
		{"מצב פנימי", f.InteriorCondition},
		{"מצב חיצוני", f.ExteriorCondition},
	}))
	return Chapter{Title: "מצב הנכס", Blocks: blocks}
}

func measurementsChapter(record store.FullRecord) Chapter {
	blocks := []Block{heading("מדידות")}
	if len(record.Measurements) > 0 {
		rows := make([][2]string, 0, len(record.Measurements))
		for _, m := range record.Measurements {
			value := hebrew.FormatNumber(m.Value, true)
			if m.Unit != "" {
				value += " " + m.Unit
			}
			rows = append(rows, [2]string{m.Name, value})
		}
		blocks = append(blocks, detailsTable("measurements", rows))
	}
	for _, image := range record.Images {
		if image.URL != "" {
			blocks = append(blocks, imageBlock(image.Name, image.URL))
		}
	}
	return Chapter{Title: "מדידות", Blocks: blocks}
}

func locationChapter(shots []store.Screenshot) Chapter {
	blocks := []Block{heading("מיקום וסביבה")}
	for _, shot := range shots {
		if shot.URL != "" {
			blocks = append(blocks, imageBlock(shot.Title, shot.URL))
		}
	}
	return Chapter{Title: "מיקום וסביבה", Blocks: blocks}
}

func comparablesChapter(comparables []store.Comparable) Chapter {
	var b strings.Builder
	b.WriteString(`<table class="comparables"><tr>`)
	for _, header := range []string{"כתובת", "תאריך מכירה", "חדרים", "שטח", "קומה", "מחיר", "מחיר למ\"ר"} {
		fmt.Fprintf(&b, `<th>%s</th>`, esc(header))
	}
	b.WriteString(`</tr>`)
	for _, c := range comparables {
		b.WriteString(`<tr>`)
		cells := []string{
			orPlaceholder(c.Address),
			hebrew.FormatDateNumeric(c.SaleDate),
			hebrew.FormatNumber(c.Rooms, c.Rooms != 0),
			hebrew.FormatArea(c.Area, c.Area != 0),
			orPlaceholder(c.Floor),
			hebrew.FormatCurrency(c.Price, c.Price != 0),
			hebrew.FormatCurrency(c.PricePerSqm, c.PricePerSqm != 0),
		}
		for _, cell := range cells {
			fmt.Fprintf(&b, `<td>%s</td>`, esc(cell))
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</table>`)

	return Chapter{
		Title: "עסקאות השוואה",
		Blocks: []Block{
			heading("עסקאות השוואה"),
			{
				Kind:   BlockTable,
				HTML:   template.HTML(b.String()),
				Height: tableBaseHeight + (len(comparables)+1)*tableRowHeight,
			},
		},
	}
}

func valuationChapter(f Fields) Chapter {
	blocks := []Block{heading("השומה")}
	sentence := fmt.Sprintf(
		"לאור האמור לעיל, הנני מעריך את שווי הנכס בסך של %s (%s שקלים חדשים).",
		f.FinalValuation, f.FinalInWords)
	if !f.HasFinalValue {
		sentence = "שווי הנכס טרם נקבע."
	}
	blocks = append(blocks, paragraph(sentence))
	return Chapter{Title: "השומה", Blocks: blocks}
}

func recommendationsChapter(recommendations []string) Chapter {
	blocks := []Block{heading("הערות והמלצות")}
	for _, recommendation := range recommendations {
		blocks = append(blocks, paragraph(recommendation))
	}
	return Chapter{Title: "הערות והמלצות", Blocks: blocks}
}

func signatureChapter(f Fields) Chapter {
	var b strings.Builder
	b.WriteString(`<div class="signature">`)
	fmt.Fprintf(&b, `<p>%s</p>`, esc(f.AppraiserName))
	fmt.Fprintf(&b, `<p>שמאי מקרקעין, רישיון מס' %s</p>`, esc(f.LicenseNo))
	fmt.Fprintf(&b, `<p>%s</p>`, esc(f.ValuationDateLong))
	b.WriteString(`</div>`)
	return Chapter{
		Title: "חתימה",
		Blocks: []Block{
			{Kind: BlockParagraph, HTML: template.HTML(b.String()), Height: 140},
		},
	}
}

func esc(s string) string {
	return template.HTMLEscapeString(s)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return hebrew.Placeholder
	}
	return s
}
