package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosprom-backend/internal/models"
)

func metricRow(year int, revenue float64, employees int) models.OrganizationMetric {
	m := models.OrganizationMetric{Year: year}
	if revenue >= 0 {
		m.Revenue = &revenue
	}
	if employees >= 0 {
		m.TotalEmployees = &employees
	}
	return m
}

func TestTrendsForComputesChange(t *testing.T) {
	metrics := []models.OrganizationMetric{
		metricRow(2022, 1000, 100),
		metricRow(2023, 1200, 90),
	}

	latest, revenue, employees := trendsFor(metrics, 2023)
	require.NotNil(t, latest)
	assert.Equal(t, 2023, latest.Year)

	require.NotNil(t, revenue)
	assert.Equal(t, "up", revenue.Direction)
	assert.Equal(t, "↑ 20.0%", revenue.Change)

	require.NotNil(t, employees)
	assert.Equal(t, "down", employees.Direction)
	assert.Equal(t, "↓ 10.0%", employees.Change)
}

func TestTrendsForMissingPriorYear(t *testing.T) {
	metrics := []models.OrganizationMetric{
		metricRow(2023, 1200, 90),
	}

	latest, revenue, employees := trendsFor(metrics, 2023)
	require.NotNil(t, latest)
	assert.Nil(t, revenue)
	assert.Nil(t, employees)
}

func TestTrendsForZeroPriorBase(t *testing.T) {
	metrics := []models.OrganizationMetric{
		metricRow(2022, 0, 0),
		metricRow(2023, 1200, 90),
	}

	_, revenue, employees := trendsFor(metrics, 2023)
	assert.Nil(t, revenue)
	assert.Nil(t, employees)
}

func TestTrendsForAbsentValues(t *testing.T) {
	metrics := []models.OrganizationMetric{
		metricRow(2022, -1, -1),
		metricRow(2023, 1200, 90),
	}

	_, revenue, employees := trendsFor(metrics, 2023)
	assert.Nil(t, revenue)
	assert.Nil(t, employees)
}

func TestMakeTrendNeutral(t *testing.T) {
	tr := makeTrend(0)
	assert.Equal(t, "neutral", tr.Direction)
	assert.Equal(t, "→ 0.0%", tr.Change)
}
