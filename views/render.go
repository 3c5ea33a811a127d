package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer рендерит HTML страницы обоих представлений
type Renderer struct {
	input    *template.Template
	forecast *template.Template
}

func NewRenderer() (*Renderer, error) {
	input, err := template.ParseFS(templateFS, "templates/input.html")
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки шаблона формы: %w", err)
	}
	forecast, err := template.ParseFS(templateFS, "templates/forecast.html")
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки шаблона прогноза: %w", err)
	}
	return &Renderer{input: input, forecast: forecast}, nil
}

func (r *Renderer) RenderInput(w io.Writer, view *InputView) error {
	return r.input.Execute(w, view)
}

func (r *Renderer) RenderDisplay(w io.Writer, view *DisplayView) error {
	return r.forecast.Execute(w, view)
}
