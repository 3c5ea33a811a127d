package providers

import (
	"context"
	"weather-forecast/models"
)

// Provider интерфейс источника прогнозов
type Provider interface {
	Name() string
	GetForecast(ctx context.Context, req models.ForecastRequest) (*models.ForecastResponse, error)
}
