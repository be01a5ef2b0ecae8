package recon

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Export formats. "csv" quotes text cells and joins with commas; "table" is
// a plain row/column HTML table for pasting into documents.
const (
	FormatCSV   = "csv"
	FormatTable = "table"
)

// ExportComparisonCSV serializes a comparison to CSV text. Column order is
// Date then a (MAIN, TAB, Variance) triple per vehicle; kilometre values
// are rounded to whole km, matching the dashboard display.
func ExportComparisonCSV(cmp Comparison) string {
	var b strings.Builder
	b.WriteString("Date")
	for _, v := range cmp.Vehicles {
		fmt.Fprintf(&b, ",%s MAIN (km),%s TAB (km),%s Variance", v, v, v)
	}
	b.WriteString("\n")
	for _, row := range cmp.Rows {
		b.WriteString(row.Date)
		for _, cell := range row.Cells {
			b.WriteString("," + roundKm(cell.Main) + "," + roundKm(cell.Tab) + "," + roundKm(cell.Variance))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ExportComparisonTable serializes a comparison to simple HTML table markup.
func ExportComparisonTable(cmp Comparison) string {
	var b strings.Builder
	b.WriteString("<table>\n<tr><th>Date</th>")
	for _, v := range cmp.Vehicles {
		fmt.Fprintf(&b, "<th>%s MAIN</th><th>%s TAB</th><th>%s Var</th>", v, v, v)
	}
	b.WriteString("</tr>\n")
	for _, row := range cmp.Rows {
		b.WriteString("<tr><td>" + row.Date + "</td>")
		for _, cell := range row.Cells {
			b.WriteString("<td>" + roundKm(cell.Main) + "</td><td>" + roundKm(cell.Tab) + "</td><td>" + roundKm(cell.Variance) + "</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>\n")
	return b.String()
}

// ExportTabCSV serializes a filtered tab view to CSV text: the header row
// plain, every data cell wrapped in quotes. No further escaping is applied
// beyond the quoting; sheet cells do not contain double quotes once parsed.
func ExportTabCSV(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(headers, ",") + "\n")
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`"` + cell + `"`)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ExportTabTable serializes a filtered tab view to HTML table markup.
func ExportTabTable(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("<table>\n<tr>")
	for _, h := range headers {
		b.WriteString("<th>" + h + "</th>")
	}
	b.WriteString("</tr>\n")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + cell + "</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>\n")
	return b.String()
}

func roundKm(v float64) string {
	return strconv.Itoa(int(math.Round(v)))
}
