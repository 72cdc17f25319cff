package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"myobclient/bot"
	"myobclient/impl/core"
	"myobclient/internal/config"
	"myobclient/internal/database"
	repository "myobclient/internal/database/mongo"
	"myobclient/internal/database/redis"
	"myobclient/internal/http-server/api"
	"myobclient/internal/http-server/middleware/idempotency"
	"myobclient/internal/lib/logger"
	"myobclient/internal/lib/sl"
	"myobclient/internal/services"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	// Initialize Telegram bot if enabled
	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelDebug)
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram bot initialized")
		}
	}

	lg.Info("starting myobclient",
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("mode", conf.Myob.Mode),
	)
	lg.Debug("debug messages enabled")

	handler := core.New(lg, conf)

	myob, err := services.NewMyobService(conf, lg)
	if err != nil {
		lg.Error("myob service", sl.Err(err))
		os.Exit(1)
	}
	handler.SetMyob(myob)
	lg.With(
		slog.String("base_url", conf.Myob.BaseUrl),
		slog.String("default_sku", conf.Myob.DefaultSku),
	).Info("myob service initialized")

	if conf.SQL.Enabled {
		db, err := database.NewSQLClient(conf, lg)
		if err != nil {
			lg.With(
				sl.Err(err),
			).Error("mysql client")
		}
		if db != nil {
			handler.SetRepository(db)
			lg.With(
				slog.String("host", conf.SQL.HostName),
				slog.String("port", conf.SQL.Port),
				slog.String("user", conf.SQL.UserName),
				slog.String("database", conf.SQL.Database),
			).Info("mysql client initialized")
			defer db.Close()

			lg.Info("mysql stats", slog.String("connections", db.Stats()))
			go func() {
				ticker := time.NewTicker(30 * time.Minute)
				defer ticker.Stop()
				for range ticker.C {
					lg.Info("mysql", slog.String("stats", db.Stats()))
				}
			}()
		}
	}

	mongo, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.Error("mongo client", sl.Err(err))
	}
	if mongo != nil {
		handler.SetMongoRepository(mongo)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	var claimer idempotency.Claimer
	cache, err := redis.NewSkuCache(conf, lg)
	if err != nil {
		lg.Error("redis cache", sl.Err(err))
	}
	if cache != nil {
		handler.SetSkuCache(cache)
		claimer = cache
		defer func() { _ = cache.Close() }()
		lg.With(slog.String("addr", conf.Redis.Addr)).Info("redis cache initialized")
	}

	if tgBot != nil {
		tgBot.SetResolver(handler)
		go func() {
			if err := tgBot.Start(); err != nil {
				lg.Error("telegram bot error", sl.Err(err))
			}
		}()
	}

	handler.Start()
	defer handler.Stop()

	go func() {
		if err := api.New(conf, lg, handler, claimer); err != nil {
			lg.Error("server start", sl.Err(err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	lg.Info("service stopped")
}
