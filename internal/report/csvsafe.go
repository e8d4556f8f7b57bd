package report

import "strings"

// Characters that make spreadsheet apps treat a cell as a formula when
// they appear first, including the tab and line breaks some of them
// accept as formula lead-ins.
const formulaLeads = "=+-@|%\t\r\n"

// EscapeCell neutralizes spreadsheet formula injection by prefixing a
// suspicious cell with a single quote. Listing titles and conditions are
// scraped text, so every exported cell goes through here.
func EscapeCell(value string) string {
	if value == "" {
		return value
	}
	if strings.IndexByte(formulaLeads, value[0]) >= 0 {
		return "'" + value
	}
	return value
}

// EscapeRow escapes every cell in a row.
func EscapeRow(row []string) []string {
	escaped := make([]string, len(row))
	for i, cell := range row {
		escaped[i] = EscapeCell(cell)
	}
	return escaped
}
