package session

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"weather-forecast/models"
	"weather-forecast/providers"
	"weather-forecast/views"
)

// Submitter выполняет отправку формы: один запрос к провайдеру
// и передачу полного ответа на страницу результатов.
type Submitter struct {
	provider providers.Provider
	handoffs *HandoffStore
	inflight *singleflight.Group
}

// NewSubmitter при dedupe=true одинаковые одновременные отправки
// объединяются в один исходящий запрос.
func NewSubmitter(provider providers.Provider, handoffs *HandoffStore, dedupe bool) *Submitter {
	s := &Submitter{
		provider: provider,
		handoffs: handoffs,
	}
	if dedupe {
		s.inflight = &singleflight.Group{}
	}
	return s
}

// Submit переводит форму loading -> success | error и возвращает токен
// для страницы результатов. Индикатор загрузки снимается в любом случае.
func (s *Submitter) Submit(ctx context.Context, view *views.InputView) (token string, err error) {
	view.Begin()
	defer func() {
		if err != nil {
			view.Fail(err)
		}
	}()

	if err := view.Validate(); err != nil {
		return "", err
	}

	resp, err := s.Fetch(ctx, view.Request())
	if err != nil {
		return "", err
	}

	token, err = s.handoffs.Put(resp)
	if err != nil {
		return "", err
	}

	view.Succeed(resp)
	return token, nil
}

// Fetch выполняет запрос прогноза без участия формы
func (s *Submitter) Fetch(ctx context.Context, req models.ForecastRequest) (*models.ForecastResponse, error) {
	if s.inflight == nil {
		return s.fetch(ctx, req)
	}

	// Общий запрос не зависит от отмены отдельного вызывающего
	shared := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(req.Key(), func() (any, error) {
		return s.fetch(shared, req)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", providers.ErrFetchFailed, ctx.Err())
	case res := <-ch:
		if res.Shared {
			slog.Debug("повторная отправка объединена с запросом в полете", "request", req.Key())
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.ForecastResponse), nil
	}
}

func (s *Submitter) fetch(ctx context.Context, req models.ForecastRequest) (*models.ForecastResponse, error) {
	resp, err := s.provider.GetForecast(ctx, req)
	if err != nil {
		slog.Error("ошибка получения прогноза", "provider", s.provider.Name(), "request", req.Key(), "err", err)
		return nil, fmt.Errorf("%s: %w", s.provider.Name(), err)
	}
	slog.Info("прогноз получен", "provider", s.provider.Name(), "entries", len(resp.Forecast))
	return resp, nil
}

func (s *Submitter) ProviderName() string {
	return s.provider.Name()
}

func (s *Submitter) Handoffs() *HandoffStore {
	return s.handoffs
}
