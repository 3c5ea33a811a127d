package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"weather-forecast/models"
)

// RateLimitedProvider ограничивает частоту исходящих запросов к провайдеру
type RateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider rps может быть дробным, burst - размер всплеска
func NewRateLimitedProvider(provider Provider, rps float64, burst int) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimitedProvider) Name() string {
	return fmt.Sprintf("%s [Rate Limited]", r.provider.Name())
}

func (r *RateLimitedProvider) GetForecast(ctx context.Context, req models.ForecastRequest) (*models.ForecastResponse, error) {
	// Ждем разрешения лимитера или отмены контекста
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: ожидание лимита прервано: %w", ErrFetchFailed, err)
	}

	return r.provider.GetForecast(ctx, req)
}
