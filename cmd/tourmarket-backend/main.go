package main

import (
	"flag"
	"log"

	"tourmarket-backend/internal/catalog"
	"tourmarket-backend/internal/config"
	"tourmarket-backend/internal/infrastructure/repo"
	"tourmarket-backend/internal/server"
	"tourmarket-backend/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()
	envDefaults := config.EnvDefaults()

	env := flag.String("env", envDefaults.Env, "")
	port := flag.Int("port", envDefaults.Port, "")
	jwtSecret := flag.String("jwt-secret", envDefaults.JWTSecret, "")
	dataFile := flag.String("data-file", envDefaults.DataFile, "")
	backupRoot := flag.String("backup-root", envDefaults.BackupRoot, "")
	driver := flag.String("orders-repository", envDefaults.OrdersRepository, "")

	flag.Parse()

	cfg := envDefaults
	cfg.Env = *env
	cfg.Port = *port
	cfg.JWTSecret = *jwtSecret
	cfg.DataFile = *dataFile
	cfg.BackupRoot = *backupRoot
	cfg.OrdersRepository = *driver

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	orderRepo, err := repo.Open(cfg, logger)
	if err != nil {
		logger.Fatal("open order repository", zap.Error(err))
	}

	seedUsers, err := usecase.SeedUsersFrom(cfg.SeedUsersJSON)
	if err != nil && !cfg.Production() {
		logger.Fatal("seed users", zap.Error(err))
	}

	orders := &usecase.OrderService{
		Repo:              orderRepo,
		Catalog:           catalog.Static{},
		CommissionPercent: cfg.CommissionPercent,
		Log:               logger,
	}
	auth := &usecase.AuthService{
		JWTSecret: cfg.JWTSecret,
		Env:       cfg.Env,
		SeedUsers: seedUsers,
	}

	srv := server.New(cfg, orders, auth, logger)
	logger.Info("tourmarket backend listening",
		zap.Int("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("ordersRepository", cfg.OrdersRepository),
		zap.Float64("commissionPercent", cfg.CommissionPercent))
	if err := srv.Run(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Production() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	return zcfg.Build()
}
