package main

import (
	"context"
	"flag"
	"time"

	"github.com/CorvidLabs/algochat/internal/config"
	"github.com/CorvidLabs/algochat/internal/repository/directory"
	redisSvc "github.com/CorvidLabs/algochat/internal/service/redis"
	"github.com/CorvidLabs/algochat/internal/service/relay"
	"github.com/CorvidLabs/algochat/internal/utils/log"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "algochat.toml", "path of the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
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

	directoryRepo := directory.NewDirectoryRepo(db)
	s := relay.NewServer(directoryRepo, redisService)
	if err := s.Run(cfg.Relay.Addr); err != nil {
		log.Fatal("relay stopped", zap.Error(err))
	}
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
