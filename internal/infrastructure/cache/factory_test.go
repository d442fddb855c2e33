package cache

import (
	"github.com/backoffice/ledger/internal/infrastructure/config"
)

func configWithoutRedis() config.RedisConfig {
	return config.RedisConfig{Host: "", Port: 6379}
}
