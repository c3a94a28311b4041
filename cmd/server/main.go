package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nkprasad12/dnd/internal/config"
	"github.com/nkprasad12/dnd/internal/engine"
	"github.com/nkprasad12/dnd/internal/infrastructure/storage"
	"github.com/nkprasad12/dnd/internal/network"
	"github.com/nkprasad12/dnd/internal/server"
	"github.com/nkprasad12/dnd/internal/version"
	"github.com/nkprasad12/dnd/pkg/logger"
)

func init() {
	// .env опционален: в проде все приходит из окружения
	_ = godotenv.Load()
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации
	var cfgFile string
	flag.StringVar(&cfgFile, "config", "", "Path to yaml config file (optional)")
	flag.Parse()

	logger.Log.Info("Starting board sync server...")
	logger.Log.Info(version.String())

	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.Log.Fatal("Config error: ", err)
	}

	store, err := buildStore(cfg)
	if err != nil {
		logger.Log.Fatal("Storage init error: ", err)
	}

	// 2. Инициализация ядра
	cache := engine.NewBoardCache(store, cfg.Cache.FlushInterval)
	cache.Start()

	directory := engine.NewBoardDirectory(store)
	hub := network.NewBroadcaster()

	service := engine.NewSyncService(cache, directory, hub)
	service.Start()

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 3. Запуск сервера
	srv := server.New(service, cfg.Port)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Log.Fatal("Server start error: ", err)
		}
	}()

	<-stop
	logger.Log.Info("Shutting down...")

	// Дообрабатываем очередь событий и синхронно сбрасываем грязные доски
	service.Stop()
	cache.Stop()
	if err := store.Close(); err != nil {
		logger.Log.WithError(err).Error("Failed to close store")
	}

	logger.Log.Info("Done.")
}

func buildStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "pebble":
		return storage.NewPebbleStore(cfg.Storage.DataDir + "/pebble")
	default:
		return storage.NewFileStore(cfg.Storage.DataDir)
	}
}
