package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"weather-forecast/config"
	"weather-forecast/providers"
	"weather-forecast/session"
	"weather-forecast/views"
	"weather-forecast/web"
)

var (
	cfg       *config.Config
	submitter *session.Submitter
)

func main() {
	// Загружаем конфигурацию
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)
	submitter = newSubmitter(cfg)

	// Создаем CLI команды
	var rootCmd = &cobra.Command{
		Use:   "forecast",
		Short: "Клиент сервиса прогноза погоды",
		Long:  "Собирает координаты и число дней, запрашивает прогноз у сервера прогнозов и показывает результат",
	}

	// Команда для запуска веб-интерфейса
	var serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Запуск веб-интерфейса",
		Run: func(cmd *cobra.Command, args []string) {
			startServer()
		},
	}

	// Команда для запроса прогноза через CLI
	var getCmd = &cobra.Command{
		Use:   "get <широта> <долгота> <дни>",
		Short: "Получить прогноз для координат",
		Long:  "Получить прогноз для координат. Отрицательные значения передавайте после --, например: forecast get -- -33.87 151.21 3",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return getForecastCLI(cmd.Context(), args[0], args[1], args[2], output)
		},
	}

	getCmd.Flags().StringP("output", "o", "text", "Формат вывода (text, json)")

	// Команда для проверки настроек
	var endpointCmd = &cobra.Command{
		Use:   "endpoint",
		Short: "Показать адрес сервера прогнозов и настройки",
		Run: func(cmd *cobra.Command, args []string) {
			showEndpoint()
		},
	}

	rootCmd.AddCommand(serverCmd, getCmd, endpointCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func newSubmitter(cfg *config.Config) *session.Submitter {
	var provider providers.Provider = providers.NewForecastAPIProvider(
		cfg.ForecastAPIURL,
		time.Duration(cfg.RequestTimeout)*time.Second,
	)

	if cfg.RateLimitRPS > 0 {
		provider = providers.NewRateLimitedProvider(provider, cfg.RateLimitRPS, cfg.RateLimitBurst)
		slog.Info("включено ограничение частоты запросов", "rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	}

	return session.NewSubmitter(provider, session.NewHandoffStore(cfg.HandoffTTL), cfg.DedupeSubmissions)
}

// startServer запускает HTTP сервер
func startServer() {
	renderer, err := views.NewRenderer()
	if err != nil {
		slog.Error("ошибка загрузки шаблонов", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go submitter.Handoffs().RunSweeper(ctx, time.Minute)

	srv := web.NewServer(submitter, renderer)

	// Без таймаута запроса ответ может идти сколько угодно
	var writeTimeout time.Duration
	if cfg.RequestTimeout > 0 {
		writeTimeout = time.Duration(cfg.RequestTimeout)*time.Second + 5*time.Second
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("сервер запущен", "port", cfg.ServerPort, "forecast_api", cfg.ForecastAPIURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("ошибка сервера", "err", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("завершение работы сервера...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("ошибка при завершении работы сервера", "err", err)
		os.Exit(1)
	}

	submitter.Handoffs().Clear()
	slog.Info("сервер остановлен")
}

// getForecastCLI выполняет одну отправку и печатает результат
func getForecastCLI(ctx context.Context, latitude, longitude, days, output string) error {
	view := views.NewInputView(latitude, longitude, days)

	token, err := submitter.Submit(ctx, view)
	if err != nil {
		return fmt.Errorf("%s: %w", view.ErrorMessage(), err)
	}
	submitter.Handoffs().Take(token)

	if output == "json" {
		data, err := json.MarshalIndent(view.Result(), "", "  ")
		if err != nil {
			return fmt.Errorf("ошибка сериализации ответа: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	return views.NewDisplayView(view.Result()).WriteText(os.Stdout)
}

// showEndpoint показывает текущие настройки
func showEndpoint() {
	fmt.Println("📡 Сервер прогнозов:")
	fmt.Println(strings.Repeat("-", 30))
	fmt.Printf("Адрес: %s\n", cfg.ForecastAPIURL)
	fmt.Printf("Провайдер: %s\n", submitter.ProviderName())

	if cfg.RequestTimeout > 0 {
		fmt.Printf("Таймаут запроса: %d с\n", cfg.RequestTimeout)
	} else {
		fmt.Println("Таймаут запроса: нет")
	}

	if cfg.DedupeSubmissions {
		fmt.Println("✓ Объединение одинаковых отправок")
	} else {
		fmt.Println("✗ Объединение одинаковых отправок (выключено)")
	}

	fmt.Printf("Время жизни невостребованных результатов: %d мин\n", cfg.HandoffTTL)
}
