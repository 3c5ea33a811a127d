package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"weather-forecast/models"
)

// ErrFetchFailed любая неудача запроса: сеть, статус не 2xx, нечитаемое тело
var ErrFetchFailed = errors.New("не удалось получить прогноз")

type ForecastAPIProvider struct {
	endpoint string
	client   *http.Client
}

// NewForecastAPIProvider создает клиента сервера прогнозов.
// timeout == 0 означает отсутствие таймаута.
func NewForecastAPIProvider(endpoint string, timeout time.Duration) *ForecastAPIProvider {
	return &ForecastAPIProvider{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *ForecastAPIProvider) Name() string {
	return "ForecastAPI"
}

func (p *ForecastAPIProvider) Endpoint() string {
	return p.endpoint
}

func (p *ForecastAPIProvider) GetForecast(ctx context.Context, request models.ForecastRequest) (*models.ForecastResponse, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка сериализации запроса: %w", ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка создания запроса: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка HTTP запроса: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: статус %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения ответа: %w", ErrFetchFailed, err)
	}

	slog.Debug("ответ сервера прогнозов", "endpoint", p.endpoint, "body", string(body))

	var result models.ForecastResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: ошибка парсинга JSON: %w", ErrFetchFailed, err)
	}

	return &result, nil
}
