// Package csvcodec moves company records in and out of CSV files.
//
// The encoder quotes every field and prefixes the document with a UTF-8
// byte order mark so spreadsheet tools pick the right encoding. The
// decoder is a tolerant line scanner: it never fails, and rows whose first
// field is blank are dropped.
package csvcodec

import (
	"strings"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/models"
)

// BOM is written at the start of every exported document.
const BOM = "\uFEFF"

// Header holds the column titles, in column order.
var Header = []string{
	"name", "region", "address", "contact_person", "phone",
	"email", "business_type", "notes", "color",
}

// Record is one decoded data row.
type Record struct {
	// Line is the 1-based line number in the decoded text.
	Line          int
	Name          string
	Region        string
	Address       string
	ContactPerson string
	Phone         string
	Email         string
	BusinessType  string
	Notes         string
	// Color is nil when the column is missing or empty.
	Color *string
}

// Company converts the record into a company ready for validation.
func (r *Record) Company() models.Company {
	c := models.Company{
		Name:          r.Name,
		Region:        r.Region,
		Address:       r.Address,
		ContactPerson: r.ContactPerson,
		Phone:         r.Phone,
		Email:         r.Email,
		BusinessType:  r.BusinessType,
		Notes:         r.Notes,
	}
	if r.Color != nil {
		c.Color = models.Color(*r.Color)
	}
	return c
}

// Result is the outcome of Parse.
type Result struct {
	Records []Record
	// DataLines counts non-blank lines after the header.
	DataLines int
	// Skipped counts data lines dropped for having a blank first field.
	Skipped int
}

// ExportFileName returns the date-stamped name of an export taken at now.
func ExportFileName(now time.Time, ext string) string {
	return "companies_" + now.Format(models.DateLayout) + "." + ext
}

// Encode renders companies as a BOM-prefixed CSV document with a header row.
// Embedded double quotes are doubled so Decode reads them back unchanged.
func Encode(companies []models.Company) string {
	var b strings.Builder
	b.WriteString(BOM)
	writeRow(&b, Header)
	for i := range companies {
		c := &companies[i]
		b.WriteByte('\n')
		writeRow(&b, []string{
			c.Name, c.Region, c.Address, c.ContactPerson, c.Phone,
			c.Email, c.BusinessType, c.Notes, string(c.Color),
		})
	}
	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}

// Decode returns the accepted data rows of text.
func Decode(text string) []Record {
	return Parse(text).Records
}

// Parse splits text into lines, drops blank ones, discards the first
// remaining line as the header and scans the rest.
func Parse(text string) Result {
	var res Result
	header := true
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		res.DataLines++

		fields := ParseLine(line)
		if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, toRecord(i+1, fields))
	}
	return res
}

// ParseLine scans a single CSV line. A double quote toggles quoted mode, a
// doubled quote inside quotes is a literal quote, and a comma outside
// quotes ends a field. Fields are trimmed of surrounding whitespace.
func ParseLine(line string) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		switch ch := runes[i]; {
		case ch == '"':
			if quoted && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
				continue
			}
			quoted = !quoted
		case ch == ',' && !quoted:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

func toRecord(line int, fields []string) Record {
	at := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	r := Record{
		Line:          line,
		Name:          at(0),
		Region:        at(1),
		Address:       at(2),
		ContactPerson: at(3),
		Phone:         at(4),
		Email:         at(5),
		BusinessType:  at(6),
		Notes:         at(7),
	}
	if color := at(8); color != "" {
		r.Color = &color
	}
	return r
}
