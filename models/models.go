package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidJSON тело ответа не является JSON
var ErrInvalidJSON = errors.New("некорректный JSON в ответе")

// ForecastRequest запрос прогноза. Поля, которые не удалось разобрать,
// остаются nil и уходят на сервер как null.
type ForecastRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Days      *int     `json:"days"`
}

// ParseForecastRequest строит запрос из сырых строк формы без проверки диапазонов
func ParseForecastRequest(latitude, longitude, days string) ForecastRequest {
	return ForecastRequest{
		Latitude:  parseFloat(latitude),
		Longitude: parseFloat(longitude),
		Days:      parseInt(days),
	}
}

// Key возвращает тело запроса в виде строки, одинаковой для одинаковых запросов
func (r ForecastRequest) Key() string {
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(data)
}

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// parseFloat разбирает числовой префикс строки: "12abc" -> 12
func parseFloat(s string) *float64 {
	prefix := floatPrefix.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return nil
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseInt берет только десятичные цифры префикса: "3.7" -> 3, "1e3" -> 1
func parseInt(s string) *int {
	prefix := intPrefix.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return nil
	}
	v, err := strconv.ParseInt(prefix, 10, 32)
	if err != nil {
		return nil
	}
	n := int(v)
	return &n
}

// Value значение поля прогноза в том виде, в каком его прислал сервер.
// Отсутствующие и некорректные поля не ломают разбор.
type Value struct {
	Raw     json.RawMessage
	Number  float64
	Present bool
	Numeric bool
}

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	v.Raw = append(json.RawMessage(nil), trimmed...)
	v.Present = true

	var n float64
	if err := json.Unmarshal(trimmed, &n); err == nil {
		v.Number = n
		v.Numeric = true
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Present {
		return []byte("null"), nil
	}
	return v.Raw, nil
}

// Text возвращает значение без форматирования; строки без кавычек
func (v Value) Text() string {
	if !v.Present {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Raw, &s); err == nil {
		return s
	}
	return string(v.Raw)
}

// Num создает числовое значение
func Num(f float64) Value {
	raw, _ := json.Marshal(f)
	return Value{Raw: raw, Number: f, Present: true, Numeric: true}
}

// Str создает строковое значение
func Str(s string) Value {
	raw, _ := json.Marshal(s)
	return Value{Raw: raw, Present: true}
}

// ForecastEntry прогноз на один день
type ForecastEntry struct {
	Date         Value `json:"date"`
	MeanTemp     Value `json:"meantemp"`     // в градусах Цельсия
	Humidity     Value `json:"humidity"`     // влажность %
	WindSpeed    Value `json:"wind_speed"`   // скорость ветра м/с
	MeanPressure Value `json:"meanpressure"` // давление в hPa
}

// ForecastResponse полный ответ сервера прогнозов
type ForecastResponse struct {
	Forecast    []ForecastEntry `json:"forecast"`
	HasForecast bool            `json:"-"`
	Raw         json.RawMessage `json:"-"`
}

// UnmarshalJSON принимает объект с полем forecast, а также голый массив записей
func (r *ForecastResponse) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return ErrInvalidJSON
	}

	*r = ForecastResponse{Raw: append(json.RawMessage(nil), trimmed...)}

	var list json.RawMessage
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		list = trimmed
	case bytes.HasPrefix(trimmed, []byte("{")):
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		list = bytes.TrimSpace(obj["forecast"])
		if !bytes.HasPrefix(list, []byte("[")) {
			return nil
		}
	default:
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return err
	}

	r.HasForecast = true
	r.Forecast = make([]ForecastEntry, 0, len(items))
	for _, item := range items {
		var entry ForecastEntry
		// не-объекты дают пустую запись
		_ = json.Unmarshal(item, &entry)
		r.Forecast = append(r.Forecast, entry)
	}
	return nil
}

// MarshalJSON отдает тело ответа без изменений
func (r ForecastResponse) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	if !r.HasForecast {
		return []byte("{}"), nil
	}
	type plain struct {
		Forecast []ForecastEntry `json:"forecast"`
	}
	return json.Marshal(plain{Forecast: r.Forecast})
}

// ErrorResponse структура для ошибок
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
