package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/soslookup/ilsos-api/internal/models"
)

var (
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	blankLines      = regexp.MustCompile(`\n\s*\n`)
	anySpace        = regexp.MustCompile(`\s+`)
)

// Extractor turns raw target-site HTML into structured data. Pure: it never
// touches the network or a browser context.
type Extractor struct {
	logger *logrus.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(logger *logrus.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// TransactionIDs collects, in document order, the id attribute of every td
// element that carries one. Zero results is data, not an error.
func (e *Extractor) TransactionIDs(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	var ids []string
	doc.Find("td[id]").Each(func(_ int, cell *goquery.Selection) {
		if id, ok := cell.Attr("id"); ok && id != "" {
			ids = append(ids, id)
		}
	})

	return ids, nil
}

// BusinessRecord parses the detail page: labeled row pairs inside the
// display-details container, plus the managers table when one is found.
func (e *Extractor) BusinessRecord(html string) (models.BusinessRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse detail response: %w", err)
	}

	record := models.BusinessRecord{}

	details := doc.Find("div.display-details").First()
	if details.Length() == 0 {
		e.logger.Debug("No display-details container found")
	}

	details.Find("div.row").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find(`div[class*="col-"]`)
		// Columns come in (label, value) pairs; a label is marked by a bold
		// sub-element. Later duplicates overwrite earlier ones.
		for i := 0; i+1 < cols.Length(); i += 2 {
			label := cols.Eq(i).Find("b").First()
			if label.Length() == 0 {
				continue
			}
			key := strings.TrimSpace(anySpace.ReplaceAllString(label.Text(), " "))
			value := cellText(cols.Eq(i + 1))
			if key != "" && value != "" {
				record[key] = value
			}
		}
	})

	if managers := e.managers(doc); len(managers) > 0 {
		record["managers"] = managers
	}

	return record, nil
}

// tableStrategy is one way of locating the managers table.
type tableStrategy func(*goquery.Document) *goquery.Selection

// managersTableStrategies are tried in order, stopping at the first match:
// the accessibility relation, the table id, then the structural fallback.
var managersTableStrategies = []tableStrategy{
	func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(`table[aria-describedby="sortManagers_info"]`).First()
	},
	func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("table#sortManagers").First()
	},
	func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("div#managers table").First()
	},
}

// managers extracts manager rows. A miss is not a failure: the diagnostic
// lists candidate tables and an empty slice comes back.
func (e *Extractor) managers(doc *goquery.Document) []models.Manager {
	var table *goquery.Selection
	for _, locate := range managersTableStrategies {
		if found := locate(doc); found.Length() > 0 {
			table = found
			break
		}
	}

	if table == nil {
		e.reportManagerCandidates(doc)
		return nil
	}

	var managers []models.Manager
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(0).Text())
		address := cellText(cells.Eq(1))
		if name == "" || address == "" {
			return
		}
		managers = append(managers, models.Manager{Name: name, Address: address})
	})

	return managers
}

// reportManagerCandidates logs every table whose text mentions "manager" so
// a selector drift on the target site can be diagnosed from the logs.
func (e *Extractor) reportManagerCandidates(doc *goquery.Document) {
	tables := doc.Find("table")
	e.logger.WithField("tables", tables.Length()).Debug("No managers table matched any selector")

	tables.Each(func(i int, table *goquery.Selection) {
		if !strings.Contains(strings.ToLower(table.Text()), "manager") {
			return
		}
		attrs := make(map[string]string)
		for _, attr := range table.Nodes[0].Attr {
			attrs[attr.Key] = attr.Val
		}
		e.logger.WithFields(logrus.Fields{
			"table": i + 1,
			"attrs": attrs,
		}).Debug("Table mentions manager")
	})
}

// cellText extracts a cell's text with line breaks preserved: br elements
// become newlines, runs of horizontal whitespace collapse to one space, and
// blank lines drop out. Each line is trimmed independently so source
// indentation cannot leak into the value.
func cellText(cell *goquery.Selection) string {
	cell.Find("br").ReplaceWithHtml("\n")
	text := horizontalSpace.ReplaceAllString(cell.Text(), " ")
	text = blankLines.ReplaceAllString(text, "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
