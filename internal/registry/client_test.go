package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosprom-backend/internal/config"
)

func testClient(baseURL string, enabled bool, key string) *Client {
	return NewClient(&config.Config{
		FNSEnabled: enabled,
		FNSBaseURL: baseURL,
		FNSAPIKey:  key,
		FNSTimeout: 2 * time.Second,
	})
}

func TestValidINN(t *testing.T) {
	assert.True(t, ValidINN("7707083893"))
	assert.True(t, ValidINN("500100732259"))
	assert.False(t, ValidINN(""))
	assert.False(t, ValidINN("12345"))
	assert.False(t, ValidINN("77070838931"))
	assert.False(t, ValidINN("77070838ab"))
}

func TestOrganizationByINNRejectsInvalidINNBeforeRequest(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := testClient(srv.URL, true, "key")
	_, err := client.OrganizationByINN(context.Background(), "12345")

	assert.ErrorIs(t, err, ErrInvalidINN)
	assert.Equal(t, 0, calls, "при невалидном ИНН запрос уходить не должен")
}

func TestOrganizationByINNMapsLegalEntity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/egr", r.URL.Path)
		assert.Equal(t, "7707083893", r.URL.Query().Get("req"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"ЮЛ":{
			"ИНН":"7707083893",
			"ОГРН":"1027700132195",
			"КПП":"773601001",
			"НаимСокрЮЛ":"ПАО СБЕРБАНК",
			"НаимПолнЮЛ":"ПУБЛИЧНОЕ АКЦИОНЕРНОЕ ОБЩЕСТВО СБЕРБАНК",
			"Руководитель":{"ФИО":{"Фамилия":"Иванов","Имя":"Иван","Отчество":"Иванович"}},
			"Адрес":{"Индекс":"117312","Регион":"Москва","Улица":"Вавилова","Дом":"19"},
			"Статус":"Действующее",
			"ОснВидДеят":{"Код":"64.19","Наим":"Денежное посредничство"},
			"ДатаРег":"1991-06-20"
		}}]}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, true, "test-key")
	org, err := client.OrganizationByINN(context.Background(), "7707083893")
	require.NoError(t, err)

	assert.Equal(t, "7707083893", org.INN)
	assert.Equal(t, "1027700132195", org.OGRN)
	assert.Equal(t, "773601001", org.KPP)
	assert.Equal(t, "ЮЛ", org.OrgType)
	assert.Equal(t, "ПАО СБЕРБАНК", org.Name)
	assert.Equal(t, "ПУБЛИЧНОЕ АКЦИОНЕРНОЕ ОБЩЕСТВО СБЕРБАНК", org.FullName)
	assert.Equal(t, "Иванов Иван Иванович", org.HeadName)
	assert.Equal(t, "117312, Москва, Вавилова, 19", org.LegalAddress)
	assert.Equal(t, "Действующее", org.Status)
	assert.Equal(t, "64.19", org.MainOKVED)
	assert.Equal(t, "1991-06-20", org.RegistrationDate)
}

func TestOrganizationByINNMapsEntrepreneur(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"ИП":{
			"ИНН":"500100732259",
			"ОГРНИП":"304500116000157",
			"ФИО":{"Фамилия":"Петров","Имя":"Петр"}
		}}]}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, true, "key")
	org, err := client.OrganizationByINN(context.Background(), "500100732259")
	require.NoError(t, err)

	assert.Equal(t, "ИП", org.OrgType)
	assert.Equal(t, "Петров Петр", org.Name)
	assert.Equal(t, "ИП Петров Петр", org.FullName)
	assert.Equal(t, "304500116000157", org.OGRN)
	assert.Equal(t, "Действующее", org.Status, "пустой статус трактуется как действующее")
}

func TestOrganizationByINNNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, true, "key")
	_, err := client.OrganizationByINN(context.Background(), "7707083893")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrganizationByINNDisabledClient(t *testing.T) {
	client := testClient("http://127.0.0.1:1", false, "key")
	_, err := client.OrganizationByINN(context.Background(), "7707083893")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOrganizationByINNMissingKey(t *testing.T) {
	client := testClient("http://127.0.0.1:1", true, "")
	_, err := client.OrganizationByINN(context.Background(), "7707083893")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOrganizationByINNUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := testClient(srv.URL, true, "key")
	_, err := client.OrganizationByINN(context.Background(), "7707083893")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFinancialStatementsRequiresLegalEntityINN(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := testClient(srv.URL, true, "key")
	_, err := client.FinancialStatements(context.Background(), "500100732259")

	assert.ErrorIs(t, err, ErrInvalidINN)
	assert.Equal(t, 0, calls)
}

func TestFinancialStatementsParsesYears(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bo", r.URL.Path)
		_, _ = w.Write([]byte(`{"items":[{
			"2022":{"2110":1500,"2400":200},
			"2023":{"2110":"1 800,5"},
			"прочее":{"2110":1}
		}]}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, true, "key")
	statements, err := client.FinancialStatements(context.Background(), "7707083893")
	require.NoError(t, err)

	require.Len(t, statements, 2)
	assert.InDelta(t, 1500, statements[2022]["2110"], 0.001)
	assert.InDelta(t, 200, statements[2022]["2400"], 0.001)
	assert.InDelta(t, 1800.5, statements[2023]["2110"], 0.001)
}
