package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mosprom-backend/internal/config"
)

var (
	// ErrInvalidINN - ИНН не из 10 или 12 цифр. Проверяется до
	// обращения к внешнему сервису.
	ErrInvalidINN = errors.New("ИНН должен состоять из 10 или 12 цифр")
	// ErrNotFound - сервис ответил, но организации с таким ИНН нет.
	ErrNotFound = errors.New("организация не найдена в базе ФНС")
	// ErrUnavailable - сервис выключен, не настроен или недоступен.
	ErrUnavailable = errors.New("сервис ФНС недоступен")
)

// Organization - нормализованная карточка из ЕГРЮЛ/ЕГРИП.
type Organization struct {
	INN              string `json:"inn"`
	OGRN             string `json:"ogrn"`
	KPP              string `json:"kpp"`
	OrgType          string `json:"org_type"`
	Name             string `json:"name"`
	FullName         string `json:"full_name"`
	HeadName         string `json:"head_name"`
	LegalAddress     string `json:"legal_address"`
	Status           string `json:"status"`
	MainOKVED        string `json:"main_okved"`
	MainOKVEDName    string `json:"main_okved_name"`
	RegistrationDate string `json:"registration_date"`
}

// Client ходит в api-fns.ru. Все методы сначала валидируют ИНН и
// только потом делают сетевой запрос.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	enabled    bool
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.FNSTimeout},
		baseURL:    strings.TrimRight(cfg.FNSBaseURL, "/"),
		apiKey:     cfg.FNSAPIKey,
		enabled:    cfg.FNSEnabled,
	}
}

// ValidINN проверяет формат ИНН: 10 цифр для юрлиц, 12 для ИП.
func ValidINN(inn string) bool {
	if len(inn) != 10 && len(inn) != 12 {
		return false
	}
	for _, r := range inn {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// OrganizationByINN запрашивает карточку организации из ЕГРЮЛ/ЕГРИП.
func (c *Client) OrganizationByINN(ctx context.Context, inn string) (*Organization, error) {
	if !ValidINN(inn) {
		return nil, ErrInvalidINN
	}
	if !c.enabled || c.apiKey == "" {
		return nil, ErrUnavailable
	}

	items, err := c.fetchItems(ctx, "/egr", inn)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}

	return normalize(items[0]), nil
}

// FinancialStatements запрашивает бухгалтерскую отчетность (форма БО).
// Доступна только юрлицам, то есть 10-значным ИНН. Результат:
// год -> код строки отчетности -> значение в тыс. руб.
func (c *Client) FinancialStatements(ctx context.Context, inn string) (map[int]map[string]float64, error) {
	if !ValidINN(inn) {
		return nil, ErrInvalidINN
	}
	if len(inn) != 10 {
		return nil, ErrInvalidINN
	}
	if !c.enabled || c.apiKey == "" {
		return nil, ErrUnavailable
	}

	items, err := c.fetchItems(ctx, "/bo", inn)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}

	statements := make(map[int]map[string]float64)
	for yearStr, v := range items[0] {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			continue
		}
		rows, ok := v.(map[string]any)
		if !ok {
			continue
		}
		values := make(map[string]float64, len(rows))
		for code, raw := range rows {
			if f, ok := toFloat(raw); ok {
				values[code] = f
			}
		}
		if len(values) > 0 {
			statements[year] = values
		}
	}
	if len(statements) == 0 {
		return nil, ErrNotFound
	}
	return statements, nil
}

func (c *Client) fetchItems(ctx context.Context, path, inn string) ([]map[string]any, error) {
	reqURL := fmt.Sprintf("%s%s?req=%s&key=%s", c.baseURL, path, url.QueryEscape(inn), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("fns request failed: inn=%s: %v", inn, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("fns request failed: inn=%s status=%d", inn, resp.StatusCode)
		return nil, fmt.Errorf("%w: статус %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var payload struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: некорректный ответ", ErrUnavailable)
	}
	return payload.Items, nil
}

// normalize приводит сырой ответ ЕГРЮЛ/ЕГРИП к единому виду. Данные
// лежат под ключом типа субъекта: ЮЛ, ИП или НР.
func normalize(item map[string]any) *Organization {
	orgType := "ЮЛ"
	data := item
	if v, ok := item["ЮЛ"].(map[string]any); ok {
		data = v
	} else if v, ok := item["ИП"].(map[string]any); ok {
		orgType = "ИП"
		data = v
	} else if v, ok := item["НР"].(map[string]any); ok {
		orgType = "НР"
		data = v
	}

	org := &Organization{
		INN:     getStr(data, "ИНН"),
		OGRN:    getStr(data, "ОГРН"),
		KPP:     getStr(data, "КПП"),
		OrgType: orgType,
	}
	if org.OGRN == "" {
		org.OGRN = getStr(data, "ОГРНИП")
	}

	if orgType == "ИП" {
		fio := joinFIO(data["ФИО"])
		org.Name = fio
		org.FullName = "ИП " + fio
		org.HeadName = fio
	} else {
		org.Name = getStr(data, "НаимСокрЮЛ")
		if org.Name == "" {
			org.Name = getStr(data, "НаимПолнЮЛ")
		}
		org.FullName = getStr(data, "НаимПолнЮЛ")
		if org.FullName == "" {
			org.FullName = getStr(data, "НаимСокрЮЛ")
		}
		if head, ok := data["Руководитель"].(map[string]any); ok {
			org.HeadName = joinFIO(head["ФИО"])
		}
	}

	if addr, ok := data["Адрес"].(map[string]any); ok {
		parts := make([]string, 0, 7)
		for _, key := range []string{"Индекс", "Регион", "Город", "Улица", "Дом", "Корпус", "Квартира"} {
			if s := getStr(addr, key); s != "" {
				parts = append(parts, s)
			}
		}
		org.LegalAddress = strings.Join(parts, ", ")
	}

	org.Status = getStr(data, "Статус")
	if org.Status == "" {
		org.Status = "Действующее"
	}

	if okved, ok := data["ОснВидДеят"].(map[string]any); ok {
		org.MainOKVED = getStr(okved, "Код")
		org.MainOKVEDName = getStr(okved, "Наим")
	}

	org.RegistrationDate = getStr(data, "ДатаРег")
	if org.RegistrationDate == "" {
		org.RegistrationDate = getStr(data, "ДатаОГРН")
	}

	return org
}

func joinFIO(v any) string {
	fio, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, key := range []string{"Фамилия", "Имя", "Отчество"} {
		if s := getStr(fio, key); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func getStr(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		s := strings.ReplaceAll(n, " ", "")
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
