package dates

import (
	"testing"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysSince(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	tests := []struct {
		name string
		ref  *models.Date
		now  time.Time
		want *int
	}{
		{
			name: "no visits",
			ref:  nil,
			now:  time.Now(),
			want: nil,
		},
		{
			name: "same day",
			ref:  ptr(models.NewDate(2024, time.March, 15)),
			now:  time.Date(2024, time.March, 15, 23, 59, 0, 0, time.UTC),
			want: ptr(0),
		},
		{
			name: "ten days regardless of time of day",
			ref:  ptr(models.NewDate(2024, time.March, 5)),
			now:  time.Date(2024, time.March, 15, 0, 1, 0, 0, time.UTC),
			want: ptr(10),
		},
		{
			name: "date taken in the clock's zone",
			ref:  ptr(models.NewDate(2024, time.March, 15)),
			// 2024-03-15 20:00 UTC is already the 16th in Seoul.
			now:  time.Date(2024, time.March, 15, 20, 0, 0, 0, time.UTC).In(seoul),
			want: ptr(1),
		},
		{
			name: "across a leap day",
			ref:  ptr(models.NewDate(2024, time.February, 28)),
			now:  time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
			want: ptr(2),
		},
		{
			name: "future date",
			ref:  ptr(models.NewDate(2024, time.March, 20)),
			now:  time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC),
			want: ptr(-5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysSince(tt.ref, tt.now))
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	now := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	visited := models.NewDate(2024, time.March, 12)
	future := models.NewDate(2024, time.April, 1)

	assert.Equal(t, "3d", FormatElapsed(&models.CompanyStats{LastVisitDate: &visited}, now))
	assert.Equal(t, NoVisits, FormatElapsed(&models.CompanyStats{}, now))
	assert.Equal(t, "0d", FormatElapsed(&models.CompanyStats{LastVisitDate: &future}, now))

	gray := &models.CompanyStats{
		Company:       models.Company{Color: models.ColorGray},
		LastVisitDate: &visited,
	}
	assert.Equal(t, Excluded, FormatElapsed(gray, now))
}

func ptr[T any](v T) *T { return &v }
