package feed

import "strings"

// Supported feed delimiters. Merchant exports arrive either comma or tab
// separated; no other separator has been seen in practice.
const (
	DelimiterComma = ','
	DelimiterTab   = '\t'
)

// DetectDelimiter picks the field delimiter by counting candidates in the
// header line. Tab wins only when it strictly outnumbers commas; a tie falls
// back to comma.
func DetectDelimiter(content string) rune {
	headerLine := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		headerLine = content[:i]
	}

	commaCount := strings.Count(headerLine, ",")
	tabCount := strings.Count(headerLine, "\t")

	if (commaCount > 0 || tabCount > 0) && tabCount > commaCount {
		return DelimiterTab
	}
	return DelimiterComma
}

// splitRecords tokenizes the whole feed into rows of cells, honoring
// RFC-4180 quoting: delimiters and newlines inside double quotes are literal,
// and a doubled quote inside a quoted cell is an escaped quote.
func splitRecords(content string, delimiter rune) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if inQuotes {
			if ch == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					field.WriteRune('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteRune(ch)
			continue
		}

		switch {
		case ch == '"':
			inQuotes = true
		case ch == delimiter:
			row = append(row, field.String())
			field.Reset()
		case ch == '\n' || ch == '\r':
			if ch == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			row = append(row, field.String())
			rows = append(rows, row)
			row = nil
			field.Reset()
		default:
			field.WriteRune(ch)
		}
	}

	if field.Len() > 0 || len(row) > 0 {
		row = append(row, field.String())
		rows = append(rows, row)
	}

	return rows
}
