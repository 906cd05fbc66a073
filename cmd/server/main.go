package main

import (
	"context"
	"flag"
	"log/syslog"
	"os"
	"os/signal"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/hairlens/hairlens"
	"github.com/hairlens/hairlens/inmem"
	"github.com/hairlens/hairlens/persistent"
	"github.com/hairlens/hairlens/transport/rest"
	"github.com/sirupsen/logrus"
	logrusys "github.com/sirupsen/logrus/hooks/syslog"
	"github.com/tidwall/buntdb"
)

type config struct {
	debug           bool
	syslog          bool
	pgDsn           string
	adminKey        string
	listenAddr      string
	cacheBackend    string
	buntPath        string
	redisAddr       string
	redisPassword   string
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	cacheMinTTL     time.Duration
	cacheTimeout    time.Duration
	storeTimeout    time.Duration
}

func configFromEnv() config {
	requireEnv := func(key string) string {
		value := os.Getenv(key)
		if value == "" {
			logrus.Fatalln(key + " not set!")
		}
		return value
	}
	envOr := func(key, fallback string) string {
		value := os.Getenv(key)
		if value == "" {
			return fallback
		}
		return value
	}
	durationEnv := func(key string, fallback time.Duration) time.Duration {
		value := os.Getenv(key)
		if value == "" {
			return fallback
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			logrus.WithError(err).Fatalln(key + " is not a valid duration!")
		}
		return d
	}

	debug := os.Getenv("DEBUG") == "true"
	listenAddr := ":2137"
	if debug {
		listenAddr = "127.0.0.1:2137"
	}
	return config{
		debug:           debug,
		syslog:          os.Getenv("SYSLOG") == "true",
		pgDsn:           requireEnv("POSTGRES_DSN"),
		adminKey:        requireEnv("ADMIN_KEY"),
		listenAddr:      envOr("LISTEN_ADDR", listenAddr),
		cacheBackend:    envOr("CACHE_BACKEND", "bunt"),
		buntPath:        envOr("BUNT_PATH", "kv.db"),
		redisAddr:       envOr("REDIS_ADDR", "127.0.0.1:6379"),
		redisPassword:   os.Getenv("REDIS_PASSWORD"),
		defaultTTL:      durationEnv("SESSION_DEFAULT_TTL", hairlens.DefaultSessionTTL),
		cleanupInterval: durationEnv("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
		cacheMinTTL:     durationEnv("CACHE_MIN_TTL", time.Minute),
		cacheTimeout:    durationEnv("CACHE_TIMEOUT", 0),
		storeTimeout:    durationEnv("STORE_TIMEOUT", 0),
	}
}

func setupLogger(verbose bool, useSyslog bool) {
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: time.Stamp,
		FullTimestamp:   true,
	})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if !useSyslog {
		return
	}

	syslogHook, err := logrusys.NewSyslogHook("", "", syslog.LOG_USER, "hairlens_sessions")
	if err != nil {
		logrus.WithError(err).Fatalln("Could not create syslog hook.")
		return
	}
	logrus.AddHook(syslogHook)
}

// openCache returns the configured session cache and a function releasing it.
func openCache(ctx context.Context, cfg config) (hairlens.SessionCache, func()) {
	switch cfg.cacheBackend {
	case "bunt":
		bdb, err := buntdb.Open(cfg.buntPath)
		if err != nil {
			logrus.WithError(err).Fatalln("Could not open buntdb.")
		}
		return &persistent.BuntSessionCache{Buntdb: bdb, MinTTL: cfg.cacheMinTTL}, func() { _ = bdb.Close() }
	case "redis":
		client, err := persistent.NewRedisClient(ctx, cfg.redisAddr, cfg.redisPassword)
		if err != nil {
			logrus.WithError(err).Fatalln("Could not connect to redis.")
		}
		return &persistent.RedisSessionCache{Client: client, MinTTL: cfg.cacheMinTTL}, func() { _ = client.Close() }
	case "memory":
		cache := inmem.NewSessionCache(nil)
		cache.MinTTL = cfg.cacheMinTTL
		return cache, func() {}
	default:
		logrus.WithField("backend", cfg.cacheBackend).Fatalln("Unknown cache backend.")
		return nil, nil
	}
}

func listenAndServe(sessions hairlens.SessionService, activities hairlens.ActivityStore, cfg config) func() error {
	sessionController := rest.SessionController{Sessions: sessions}
	activityController := rest.ActivityController{Store: activities}
	adminController := rest.AdminController{Sessions: sessions, AdminKey: cfg.adminKey}

	server := fiber.New()
	server.Use(rest.LogHandler())

	api := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: rest.ErrorHandler,
	})

	allowOrigins := "https://hairlens.app"
	if cfg.debug {
		allowOrigins += ", http://localhost:3000"
	}
	api.Use(cors.New(cors.Config{AllowOrigins: allowOrigins}))

	requestAuthorizer := rest.RequestAuthorizer(sessions)
	api.Get("/status", monitor.New())
	sessionController.InstallTo(requestAuthorizer, api)
	activityController.InstallTo(requestAuthorizer, api)
	adminController.InstallTo(api)

	server.Mount("/api/", api)
	server.Use(rest.NotFoundHandler)

	go func() {
		if err := server.Listen(cfg.listenAddr); err != nil {
			logrus.WithError(err).Errorln("Fiber listen failed.")
		}
	}()

	return func() error {
		return server.Shutdown()
	}
}

func awaitInterruption() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
}

func main() {
	flag.Parse()
	cfg := configFromEnv()
	setupLogger(cfg.debug, cfg.syslog)
	logrus.Infoln("Starting session service.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logrus.Infoln("Opening database.")
	db := persistent.PgOpen(ctx, cfg.pgDsn)
	defer db.Close()
	if err := persistent.CreateSchema(ctx, db); err != nil {
		logrus.WithError(err).Fatalln("Could not create database schema.")
	}

	cache, closeCache := openCache(ctx, cfg)
	defer closeCache()

	activityStore := &persistent.ActivityStore{DB: db}
	sessions := &hairlens.SessionManager{
		Store:        &persistent.SessionStore{DB: db},
		Cache:        cache,
		Activity:     activityStore,
		DefaultTTL:   cfg.defaultTTL,
		CacheTimeout: cfg.cacheTimeout,
		StoreTimeout: cfg.storeTimeout,
	}

	cleanupDone := make(chan struct{})
	go func() {
		defer close(cleanupDone)
		runCleanup(ctx, sessions, cfg.cleanupInterval)
	}()

	logrus.WithField("addr", cfg.listenAddr).Infoln("Starting listening... To shut down use ^C")
	shutdown := listenAndServe(sessions, activityStore, cfg)

	awaitInterruption()

	logrus.Infoln("Shutting down...")
	cancel()
	<-cleanupDone
	if err := shutdown(); err != nil {
		logrus.WithError(err).Warningln("Fiber shutdown failed.")
	}
}
