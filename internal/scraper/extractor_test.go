package scraper

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soslookup/ilsos-api/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestTransactionIDs(t *testing.T) {
	extractor := NewExtractor(testLogger())

	t.Run("document order", func(t *testing.T) {
		html := `
			<table>
				<tr><td id="txn-1">Acme LLC</td><td>Active</td></tr>
				<tr><td id="txn-2">Beta Corp</td><td>Dissolved</td></tr>
			</table>
			<td id="txn-3">Stray</td>`

		ids, err := extractor.TransactionIDs(html)
		require.NoError(t, err)
		assert.Equal(t, []string{"txn-1", "txn-2", "txn-3"}, ids)
	})

	t.Run("no results", func(t *testing.T) {
		ids, err := extractor.TransactionIDs(`<table><tr><td>no id here</td></tr></table>`)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("empty id skipped", func(t *testing.T) {
		ids, err := extractor.TransactionIDs(`<td id="">x</td><td id="txn-9">y</td>`)
		require.NoError(t, err)
		assert.Equal(t, []string{"txn-9"}, ids)
	})
}

func TestBusinessRecordFields(t *testing.T) {
	extractor := NewExtractor(testLogger())

	t.Run("label value pairs", func(t *testing.T) {
		html := `
			<div class="display-details">
				<div class="row">
					<div class="col-4"><b>Entity Name</b></div>
					<div class="col-8">ACME WIDGETS LLC</div>
					<div class="col-4"><b>Status</b></div>
					<div class="col-8">Active<br>Verified</div>
				</div>
			</div>`

		record, err := extractor.BusinessRecord(html)
		require.NoError(t, err)
		assert.Equal(t, "ACME WIDGETS LLC", record["Entity Name"])
		assert.Equal(t, "Active\nVerified", record["Status"])
	})

	t.Run("duplicate label overwrites", func(t *testing.T) {
		html := `
			<div class="display-details">
				<div class="row">
					<div class="col-4"><b>Status</b></div>
					<div class="col-8">Old</div>
				</div>
				<div class="row">
					<div class="col-4"><b>Status</b></div>
					<div class="col-8">New</div>
				</div>
			</div>`

		record, err := extractor.BusinessRecord(html)
		require.NoError(t, err)
		assert.Equal(t, "New", record["Status"])
	})

	t.Run("empty value skipped", func(t *testing.T) {
		html := `
			<div class="display-details">
				<div class="row">
					<div class="col-4"><b>Agent</b></div>
					<div class="col-8">   </div>
					<div class="col-4"><b>Type</b></div>
					<div class="col-8">LLC</div>
				</div>
			</div>`

		record, err := extractor.BusinessRecord(html)
		require.NoError(t, err)
		assert.NotContains(t, record, "Agent")
		assert.Equal(t, "LLC", record["Type"])
	})

	t.Run("column without bold label skipped", func(t *testing.T) {
		html := `
			<div class="display-details">
				<div class="row">
					<div class="col-4">Plain text</div>
					<div class="col-8">Value</div>
				</div>
			</div>`

		record, err := extractor.BusinessRecord(html)
		require.NoError(t, err)
		assert.Empty(t, record)
	})

	t.Run("no details container", func(t *testing.T) {
		record, err := extractor.BusinessRecord(`<html><body><p>maintenance page</p></body></html>`)
		require.NoError(t, err)
		assert.Empty(t, record)
	})
}

func TestBusinessRecordManagers(t *testing.T) {
	extractor := NewExtractor(testLogger())

	managersBody := `
		<tbody>
			<tr><td>JANE DOE</td><td>123 MAIN ST<br>SPRINGFIELD, IL 62701</td></tr>
			<tr><td>JOHN ROE</td><td>456 OAK AVE</td></tr>
		</tbody>`

	expected := []models.Manager{
		{Name: "JANE DOE", Address: "123 MAIN ST\nSPRINGFIELD, IL 62701"},
		{Name: "JOHN ROE", Address: "456 OAK AVE"},
	}

	tableVariants := []struct {
		name string
		html string
	}{
		{
			"aria-describedby",
			`<table aria-describedby="sortManagers_info">` + managersBody + `</table>`,
		},
		{
			"table id",
			`<table id="sortManagers">` + managersBody + `</table>`,
		},
		{
			"managers container",
			`<div id="managers"><table>` + managersBody + `</table></div>`,
		},
	}

	for _, variant := range tableVariants {
		t.Run(variant.name, func(t *testing.T) {
			html := `
				<div class="display-details">
					<div class="row">
						<div class="col-4"><b>Entity Name</b></div>
						<div class="col-8">ACME WIDGETS LLC</div>
					</div>
				</div>` + variant.html

			record, err := extractor.BusinessRecord(html)
			require.NoError(t, err)
			assert.Equal(t, expected, record.Managers())
		})
	}

	t.Run("incomplete rows skipped", func(t *testing.T) {
		html := `
			<div class="display-details">
				<div class="row">
					<div class="col-4"><b>Entity Name</b></div>
					<div class="col-8">ACME WIDGETS LLC</div>
				</div>
			</div>
			<table id="sortManagers">
				<tbody>
					<tr><td>ONLY NAME</td></tr>
					<tr><td></td><td>ADDRESS WITHOUT NAME</td></tr>
					<tr><td>JANE DOE</td><td>123 MAIN ST</td></tr>
				</tbody>
			</table>`

		record, err := extractor.BusinessRecord(html)
		require.NoError(t, err)
		assert.Equal(t, []models.Manager{{Name: "JANE DOE", Address: "123 MAIN ST"}}, record.Managers())
	})

	t.Run("no managers table leaves key absent", func(t *testing.T) {
		html := `
			<div class="display-details">
				<div class="row">
					<div class="col-4"><b>Entity Name</b></div>
					<div class="col-8">ACME WIDGETS LLC</div>
				</div>
			</div>`

		record, err := extractor.BusinessRecord(html)
		require.NoError(t, err)
		assert.NotContains(t, record, "managers")
		assert.Empty(t, record.Managers())
	})
}

func TestCellTextNormalization(t *testing.T) {
	extractor := NewExtractor(testLogger())

	extract := func(value string) string {
		html := `
			<div class="display-details">
				<div class="row">
					<div class="col-4"><b>Field</b></div>
					<div class="col-8">` + value + `</div>
				</div>
			</div>`
		record, err := extractor.BusinessRecord(html)
		require.NoError(t, err)
		text, _ := record["Field"].(string)
		return text
	}

	t.Run("collapses whitespace around breaks", func(t *testing.T) {
		assert.Equal(t, "Active\nVerified", extract("Active  <br>\n\n  Verified"))
	})

	t.Run("idempotent on already clean text", func(t *testing.T) {
		first := extract("Active  <br>   Verified")
		second := extract(first)
		assert.Equal(t, first, second)
	})

	t.Run("multiple breaks collapse", func(t *testing.T) {
		assert.Equal(t, "A\nB", extract("A<br><br>   <br>B"))
	})
}
