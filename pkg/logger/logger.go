package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log - глобальный экземпляр логгера для всего приложения.
// Создается сразу с дефолтными настройками, чтобы пакеты (и тесты)
// могли писать логи до вызова Init.
var Log = logrus.New()

// Init настраивает глобальный логгер.
// Вызывается один раз при старте приложения (из main.go).
func Init() {
	// Уровень логирования берем из окружения, по умолчанию "info".
	// Для отладки синхронизации досок удобно выставить "debug":
	// тогда видно каждый принятый дифф и каждый проход flush-цикла.
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	// Форматтер: "json" для продакшена и сбора логов, текст для разработки.
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	Log.SetOutput(os.Stdout)
}
