package core

import "strings"

// Delimiter separates fields within a row.
const Delimiter = ','

const quote = '"'

// ParseRow splits one row of delimited text into its fields.
//
// A double quote toggles quoted mode and is dropped; while quoted, the
// delimiter is kept as literal text. Quotes cannot be escaped. An unbalanced
// quote is not an error: the remainder of the row collapses into the current
// field. The result always holds at least one (possibly empty) field.
func ParseRow(text string) []string {
	fields := make([]string, 0, 32)
	var field strings.Builder
	inQuotes := false

	// Bytes, not runes: text that is not valid UTF-8 passes through as is.
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == quote:
			inQuotes = !inQuotes
		case c == Delimiter && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}

	return append(fields, field.String())
}

// JoinRow renders fields as one delimited row. Fields whose index is set in
// quoted are wrapped in double quotes whether or not they need it.
func JoinRow(fields []string, quoted map[int]bool) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(Delimiter)
		}
		if quoted[i] {
			b.WriteByte(quote)
			b.WriteString(f)
			b.WriteByte(quote)
			continue
		}
		b.WriteString(f)
	}
	return b.String()
}
