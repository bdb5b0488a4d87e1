package stats

import (
	"testing"
	"time"

	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	a := models.Company{ID: uuid.New(), Name: "A"}
	b := models.Company{ID: uuid.New(), Name: "B"}
	c := models.Company{ID: uuid.New(), Name: "C"}

	logs := []models.WorkLog{
		{CompanyID: a.ID, VisitDate: models.NewDate(2024, time.February, 1)},
		{CompanyID: b.ID, VisitDate: models.NewDate(2023, time.December, 31)},
		{CompanyID: a.ID, VisitDate: models.NewDate(2024, time.March, 3)},
		{CompanyID: a.ID, VisitDate: models.NewDate(2024, time.January, 9)},
		// Orphaned logs are ignored.
		{CompanyID: uuid.New(), VisitDate: models.NewDate(2024, time.March, 9)},
	}

	rows := Aggregate([]models.Company{c, a, b}, logs)
	require.Len(t, rows, 3)

	assert.Equal(t, "C", rows[0].Name)
	assert.Equal(t, 0, rows[0].VisitCount)
	assert.Nil(t, rows[0].LastVisitDate)

	assert.Equal(t, "A", rows[1].Name)
	assert.Equal(t, 3, rows[1].VisitCount)
	require.NotNil(t, rows[1].LastVisitDate)
	assert.Equal(t, models.NewDate(2024, time.March, 3), *rows[1].LastVisitDate)

	assert.Equal(t, 1, rows[2].VisitCount)
	assert.Equal(t, models.NewDate(2023, time.December, 31), *rows[2].LastVisitDate)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, nil))

	c := models.Company{ID: uuid.New()}
	rows := Aggregate([]models.Company{c}, nil)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].VisitCount)
}
