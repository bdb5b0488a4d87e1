package csvcodec

import (
	"strings"
	"testing"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	out := Encode([]models.Company{
		{Name: "Acme", Region: "Seoul", Notes: `says "hi"`, Color: models.ColorGreen},
	})

	require.True(t, strings.HasPrefix(out, BOM))
	lines := strings.Split(strings.TrimPrefix(out, BOM), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"name","region","address","contact_person","phone","email","business_type","notes","color"`, lines[0])
	assert.Equal(t, `"Acme","Seoul","","","","","","says ""hi""","green"`, lines[1])
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	companies := []models.Company{
		{Name: "Acme, Inc.", Region: "Seoul", Address: "1 Main St", ContactPerson: "Kim", Phone: "010-1234", Email: "kim@acme.test", BusinessType: "retail", Notes: "line \"quoted\"", Color: models.ColorGray},
		{Name: "Beta", Region: "Busan"},
	}

	records := Decode(Encode(companies))
	require.Len(t, records, 2)

	got := records[0].Company()
	assert.Equal(t, companies[0], got)
	assert.Equal(t, 2, records[0].Line)

	assert.Equal(t, "Beta", records[1].Name)
	assert.Nil(t, records[1].Color)
}

func TestParse(t *testing.T) {
	text := strings.Join([]string{
		"",
		"name,region",
		"  ",
		"Acme , Seoul ",
		",Busan",
		`"  ",Daegu`,
		`"Gamma",`,
		"",
	}, "\n")

	res := Parse(text)
	assert.Equal(t, 4, res.DataLines)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Records, 2)

	assert.Equal(t, "Acme", res.Records[0].Name)
	assert.Equal(t, "Seoul", res.Records[0].Region)
	assert.Equal(t, 4, res.Records[0].Line)
	assert.Equal(t, "", res.Records[0].Address)

	assert.Equal(t, "Gamma", res.Records[1].Name)
	assert.Equal(t, "", res.Records[1].Region)
}

func TestParse_HeaderOnly(t *testing.T) {
	res := Parse("name,region\n\n")
	assert.Zero(t, res.DataLines)
	assert.Empty(t, res.Records)
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{`a,b,c`, []string{"a", "b", "c"}},
		{`"a,b",c`, []string{"a,b", "c"}},
		{`"say ""hi""",x`, []string{`say "hi"`, "x"}},
		{` a , "b" `, []string{"a", "b"}},
		{`a,,`, []string{"a", "", ""}},
		{`"unterminated,still one`, []string{"unterminated,still one"}},
		{"trailing\r", []string{"trailing"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLine(tt.line))
		})
	}
}

func TestExportFileName(t *testing.T) {
	now := time.Date(2024, time.March, 5, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, "companies_2024-03-05.csv", ExportFileName(now, "csv"))
}
