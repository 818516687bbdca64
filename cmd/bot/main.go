package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"appstore-bot/bot"
	"appstore-bot/bot/application"
	"appstore-bot/bot/domain"
	"appstore-bot/bot/infra"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := readConfig()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// the KV backend is optional: without it the gate fails open and
	// caching/VIP/stats degrade, but the bot keeps answering
	var kv domain.KV
	var rdb *redis.Client
	if cfg.redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			logger.Warn("redis unreachable, running degraded", zap.String("addr", cfg.redisAddr), zap.Error(err))
		}
		kv = infra.NewRedisKV(rdb)
	}

	gate := application.Gate{
		Config: domain.GateConfig{
			AdminIDs:         cfg.adminIDs,
			GlobalDailyLimit: cfg.globalDailyLimit,
			MinuteLimit:      cfg.minuteLimit,
			FeatureLimits:    cfg.featureLimits,
			Location:         time.FixedZone("UTC+8", 8*3600),
		},
		Store: kv,
	}

	var stats domain.StatsStore
	var statsReader application.StatsReader
	if rdb != nil {
		s := infra.NewRedisStatsStore(rdb,
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsTrackIdentities(cfg.statsTrackIdentities),
		)
		stats, statsReader = s, s
	} else {
		s := infra.NewMemoryStatsStore(infra.WithMemoryTrackIdentities(cfg.statsTrackIdentities))
		stats, statsReader = s, s
	}

	var cache domain.ReplyCache
	if kv != nil {
		cache = &infra.KVReplyCache{Store: kv}
	}

	itunes := infra.NewITunesClient(cfg.upstreamTimeout)
	handlers := &application.Handlers{
		Search:   itunes,
		Charts:   itunes,
		Feed:     infra.NewGDMFClient(cfg.feedTimeout),
		Rates:    infra.NewExchangeClient(cfg.upstreamTimeout),
		Cache:    cache,
		Store:    kv,
		Stats:    statsReader,
		Gate:     gate,
		CheckURL: infra.CheckURL,
		Logger:   logger.Named("handlers"),
	}

	router := application.NewRouter(gate, handlers)
	router.Stats = stats
	router.Logger = logger.Named("router")

	burst := infra.NewBurstStore(cfg.burstRPS, cfg.burstSize)
	burst.StartJanitor(ctx)

	webhook := bot.NewServer(bot.Options{
		Token:    cfg.token,
		Router:   router,
		Handlers: handlers,
		Burst:    burst,
		Slots:    infra.NewSlotPool(cfg.concurrencyMax),
		Deadline: cfg.deadline,
		Logger:   logger.Named("webhook"),
	})

	mux := http.NewServeMux()
	mux.Handle(cfg.webhookPath, webhook)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("bot listening",
		zap.String("addr", cfg.listenAddr),
		zap.String("path", cfg.webhookPath),
		zap.Bool("redis", rdb != nil),
		zap.Int64("global_daily_limit", cfg.globalDailyLimit),
		zap.Int64("minute_limit", cfg.minuteLimit),
		zap.Float64("burst_rps", cfg.burstRPS),
		zap.Int("burst", cfg.burstSize),
		zap.Int("concurrency_max", cfg.concurrencyMax))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

type config struct {
	listenAddr  string
	webhookPath string
	token       string
	adminIDs    []string

	redisAddr     string
	redisPassword string
	redisDB       int

	globalDailyLimit int64
	minuteLimit      int64
	featureLimits    map[domain.Feature]int64

	burstRPS       float64
	burstSize      int
	concurrencyMax int
	deadline       time.Duration

	upstreamTimeout time.Duration
	feedTimeout     time.Duration

	statsTTL             time.Duration
	statsTrackIdentities bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.webhookPath = getenvDefault("WEBHOOK_PATH", "/api/wechat")
	cfg.token = os.Getenv("WECHAT_TOKEN")
	cfg.adminIDs = splitList(os.Getenv("ADMIN_OPENIDS"))

	cfg.redisAddr = getenvDefault("REDIS_ADDR", "")
	cfg.redisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.redisDB = getenvIntDefault("REDIS_DB", 0)

	cfg.globalDailyLimit = getenvInt64Default("GLOBAL_DAILY_LIMIT", 20)
	cfg.minuteLimit = getenvInt64Default("MINUTE_LIMIT", 6)
	cfg.featureLimits = map[domain.Feature]int64{
		domain.FeatureChart:  getenvInt64Default("LIMIT_CHART", 10),
		domain.FeaturePrice:  getenvInt64Default("LIMIT_PRICE", 10),
		domain.FeatureDetail: getenvInt64Default("LIMIT_DETAIL", 10),
		domain.FeatureIcon:   getenvInt64Default("LIMIT_ICON", 5),
		domain.FeatureOS:     getenvInt64Default("LIMIT_OS", 10),
	}

	cfg.burstRPS = getenvFloatDefault("BURST_RPS", 1)
	cfg.burstSize = getenvIntDefault("BURST", 3)
	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 32)
	cfg.deadline = getenvDurationDefault("MSG_DEADLINE", 4*time.Second)

	cfg.upstreamTimeout = getenvDurationDefault("UPSTREAM_TIMEOUT", 4*time.Second)
	cfg.feedTimeout = getenvDurationDefault("FEED_TIMEOUT", 6*time.Second)

	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 7*24*time.Hour)
	cfg.statsTrackIdentities = getenvBoolDefault("STATS_TRACK_IDENTITIES", false)

	if cfg.token == "" {
		return config{}, errors.New("WECHAT_TOKEN is required")
	}
	if cfg.burstRPS <= 0 {
		return config{}, errors.New("BURST_RPS must be > 0")
	}
	if cfg.burstSize <= 0 {
		return config{}, errors.New("BURST must be > 0")
	}
	if cfg.concurrencyMax <= 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be > 0")
	}
	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvInt64Default(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
