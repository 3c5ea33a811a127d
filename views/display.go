package views

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"weather-forecast/models"
)

const NoDataMessage = "No forecast data available."

// EntryView одна запись прогноза, готовая к выводу
type EntryView struct {
	Date        string
	Temperature string
	Humidity    string
	WindSpeed   string
	Pressure    string
}

// DisplayView страница результатов. Данные передаются явно, без роутера.
type DisplayView struct {
	Available bool
	Entries   []EntryView
}

func NewDisplayView(resp *models.ForecastResponse) *DisplayView {
	view := &DisplayView{}
	if resp == nil || !resp.HasForecast {
		return view
	}

	view.Available = true
	view.Entries = make([]EntryView, 0, len(resp.Forecast))
	for _, entry := range resp.Forecast {
		view.Entries = append(view.Entries, EntryView{
			Date:        entry.Date.Text(),
			Temperature: FormatValue(entry.MeanTemp),
			Humidity:    FormatValue(entry.Humidity),
			WindSpeed:   FormatValue(entry.WindSpeed),
			Pressure:    FormatValue(entry.MeanPressure),
		})
	}
	return view
}

// FormatValue округляет числа до двух знаков. Ноль тоже округляется,
// отсутствующее значение дает пустую строку, нечисловое выводится как есть.
func FormatValue(v models.Value) string {
	if !v.Present {
		return ""
	}
	if !v.Numeric {
		return v.Text()
	}
	return strconv.FormatFloat(v.Number, 'f', 2, 64)
}

// WriteText выводит результаты в терминал
func (d *DisplayView) WriteText(w io.Writer) error {
	var b strings.Builder
	b.WriteString("Weather Forecast Results\n")
	b.WriteString(strings.Repeat("=", 40) + "\n")

	if !d.Available {
		b.WriteString(NoDataMessage + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	for _, e := range d.Entries {
		fmt.Fprintf(&b, "Date: %s\n", e.Date)
		fmt.Fprintf(&b, "Temperature: %s °C\n", e.Temperature)
		fmt.Fprintf(&b, "Humidity: %s %%\n", e.Humidity)
		fmt.Fprintf(&b, "Wind Speed: %s m/s\n", e.WindSpeed)
		fmt.Fprintf(&b, "Pressure: %s hPa\n", e.Pressure)
		b.WriteString(strings.Repeat("-", 40) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
