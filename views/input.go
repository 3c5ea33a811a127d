package views

import (
	"errors"
	"fmt"
	"strings"

	"weather-forecast/models"
)

// FetchFailedMessage единственное сообщение об ошибке сети, которое видит пользователь
const FetchFailedMessage = "Failed to fetch forecast data"

// Status состояние формы ввода
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// RequiredFieldError обязательное поле формы не заполнено
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return e.Field + " is required"
}

// InputView состояние формы: три сырые строки и результат последней отправки
type InputView struct {
	Latitude  string
	Longitude string
	Days      string

	status Status
	err    string
	result *models.ForecastResponse
}

func NewInputView(latitude, longitude, days string) *InputView {
	return &InputView{
		Latitude:  latitude,
		Longitude: longitude,
		Days:      days,
	}
}

// Begin сбрасывает прошлую ошибку и включает индикатор загрузки
func (v *InputView) Begin() {
	v.err = ""
	v.status = StatusLoading
}

func (v *InputView) Succeed(result *models.ForecastResponse) {
	v.result = result
	v.status = StatusSuccess
}

// Fail переводит форму в состояние ошибки. Подробности сетевых ошибок
// пользователю не показываются.
func (v *InputView) Fail(err error) {
	var required *RequiredFieldError
	if errors.As(err, &required) {
		v.err = required.Error()
	} else {
		v.err = FetchFailedMessage
	}
	v.status = StatusError
}

func (v *InputView) Status() Status { return v.status }

func (v *InputView) Loading() bool { return v.status == StatusLoading }

func (v *InputView) ErrorMessage() string { return v.err }

func (v *InputView) Result() *models.ForecastResponse { return v.result }

// Validate проверяет только заполненность полей
func (v *InputView) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"Latitude", v.Latitude},
		{"Longitude", v.Longitude},
		{"Forecast Days", v.Days},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &RequiredFieldError{Field: f.name}
		}
	}
	return nil
}

func (v *InputView) Request() models.ForecastRequest {
	return models.ParseForecastRequest(v.Latitude, v.Longitude, v.Days)
}
