package report

// PageContentHeight is the content budget per page in pixels: A4 height
// minus top and bottom print margins at 96dpi.
const PageContentHeight = 970

// Page is one laid-out report page.
type Page struct {
	Number int
	Blocks []Block
}

// Paginate distributes blocks across pages against a height budget. Breaks
// land before whole blocks only, so a table row or paragraph is never split.
// A heading is kept with the block that follows it rather than stranded at a
// page bottom. A block taller than the budget gets a page of its own.
func Paginate(chapters []Chapter, budget int) []Page {
	if budget <= 0 {
		budget = PageContentHeight
	}

	var pages []Page
	current := Page{Number: 1}
	used := 0

	flush := func() {
		if len(current.Blocks) == 0 {
			return
		}
		pages = append(pages, current)
		current = Page{Number: len(pages) + 1}
		used = 0
	}

	for _, chapter := range chapters {
		for i, block := range chapter.Blocks {
			needed := block.Height
			if block.Kind == BlockHeading && i+1 < len(chapter.Blocks) {
				needed += chapter.Blocks[i+1].Height
			}
			if used > 0 && used+needed > budget {
				flush()
			}
			current.Blocks = append(current.Blocks, block)
			used += block.Height
		}
	}
	flush()

	if len(pages) == 0 {
		pages = []Page{{Number: 1}}
	}
	return pages
}
