package service

import (
	"time"

	"github.com/xobi-ai/xobi/internal/config"
)

func presignDuration(cfg *config.Config) time.Duration {
	sec := cfg.S3.PresignExpireSec
	if sec <= 0 {
		sec = 900
	}
	return time.Duration(sec) * time.Second
}
