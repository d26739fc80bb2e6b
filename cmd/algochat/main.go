package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CorvidLabs/algochat/internal/config"
	"github.com/CorvidLabs/algochat/internal/repository/contact"
	"github.com/CorvidLabs/algochat/internal/service/app"
	redisSvc "github.com/CorvidLabs/algochat/internal/service/redis"
	"github.com/CorvidLabs/algochat/internal/utils/log"
	"github.com/CorvidLabs/algochat/internal/vault"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "algochat.toml", "path of the TOML config file")
	flag.Parse()

	if flag.NArg() < 2 {
		log.Fatal("usage: algochat [-config file] <address> <peer-address>")
	}
	address, peer := flag.Arg(0), flag.Arg(1)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
	}

	passphrase := os.Getenv(cfg.Vault.PassphraseEnv)
	if passphrase == "" {
		log.Fatal("vault passphrase not set", zap.String("env", cfg.Vault.PassphraseEnv))
	}

	mongoDBClient, err := initMongo(cfg.Mongo.URI)
	if err != nil {
		log.Fatal("connect mongo failed", zap.Error(err))
	}
	db := mongoDBClient.Database(cfg.Mongo.Database)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisService := redisSvc.NewRedis(rdb)

	ctx := context.Background()

	contactRepo := contact.NewContactRepo(db)
	a := app.NewApp(cfg, contactRepo, redisService, vault.New(passphrase))
	a.Run(ctx, address, peer)

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	<-done

	a.Stop()
}

func initMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, client.Ping(ctx, nil)
}
