package organization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosprom-backend/internal/database"
	"mosprom-backend/internal/models"
)

func seedFilterOrgs(t *testing.T) {
	t.Helper()
	orgs := []models.Organization{
		{INN: "7700000001", Name: "Завод Альфа", MainIndustry: "Машиностроение", District: "ЮВАО", Region: "Печатники", CompanySize: "Крупное"},
		{INN: "7700000002", Name: "НПО Бета", MainIndustry: "Приборостроение", ExtraIndustry: "Машиностроение", District: "САО", Region: "Сокол", CompanySize: "Среднее"},
		{INN: "7700000003", Name: "Комбинат Гамма", MainIndustry: "Пищевая промышленность", District: "ЮВАО", Region: "Люблино", CompanySize2022: "Малое"},
	}
	for i := range orgs {
		require.NoError(t, database.DB.Create(&orgs[i]).Error)
	}
}

func applyAndList(t *testing.T, f FilterParams) []models.Organization {
	t.Helper()
	var orgs []models.Organization
	q := f.Apply(database.DB.Model(&models.Organization{}))
	require.NoError(t, f.ApplyOrder(q).Find(&orgs).Error)
	return orgs
}

func names(orgs []models.Organization) []string {
	out := make([]string, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, o.Name)
	}
	return out
}

func TestFiltersSearchByNameOrINN(t *testing.T) {
	setupTestDB(t)
	seedFilterOrgs(t)

	assert.Equal(t, []string{"Завод Альфа"}, names(applyAndList(t, FilterParams{Search: "альфа"})))
	assert.Equal(t, []string{"НПО Бета"}, names(applyAndList(t, FilterParams{Search: "7700000002"})))
	assert.Empty(t, applyAndList(t, FilterParams{Search: "нет такого"}))
}

func TestFiltersIndustryMatchesMainAndExtra(t *testing.T) {
	setupTestDB(t)
	seedFilterOrgs(t)

	got := applyAndList(t, FilterParams{Industries: []string{"Машиностроение"}})
	assert.ElementsMatch(t, []string{"Завод Альфа", "НПО Бета"}, names(got))
}

func TestFiltersMultipleValuesAreORed(t *testing.T) {
	setupTestDB(t)
	seedFilterOrgs(t)

	got := applyAndList(t, FilterParams{Districts: []string{"САО", "ЮВАО"}})
	assert.Len(t, got, 3)

	got = applyAndList(t, FilterParams{
		Districts:  []string{"ЮВАО"},
		Industries: []string{"Машиностроение"},
	})
	assert.Equal(t, []string{"Завод Альфа"}, names(got))
}

func TestFiltersSizeMatchesBothColumns(t *testing.T) {
	setupTestDB(t)
	seedFilterOrgs(t)

	got := applyAndList(t, FilterParams{Sizes: []string{"Малое"}})
	assert.Equal(t, []string{"Комбинат Гамма"}, names(got))
}

func TestFiltersOrder(t *testing.T) {
	setupTestDB(t)
	seedFilterOrgs(t)

	got := applyAndList(t, FilterParams{SortBy: "inn", Order: "desc"})
	assert.Equal(t, []string{"Комбинат Гамма", "НПО Бета", "Завод Альфа"}, names(got))
}
