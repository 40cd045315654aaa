package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"skillsphere/internal/mailer"
	"skillsphere/pkg/auth"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) *ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, falling back to 8080")
	}
	return &ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database.master_dsn is required")
	}

	slaveDSNs := cfg.GetStringSlice("database.slave_dsns")

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("database.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: time.Duration(cfg.GetInt("database.conn_max_lifetime_seconds")) * time.Second,
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("database config built")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (*RabbitConfig, error) {
	url := cfg.GetString("rabbit.url")
	if url == "" {
		return nil, fmt.Errorf("rabbit.url is required")
	}

	rc := &RabbitConfig{
		Url:      url,
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Exchange == "" {
		rc.Exchange = "registration.expiry"
	}
	if rc.Queue == "" {
		rc.Queue = "registration.expiry.queue"
	}

	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit config built")
	return rc, nil
}

func BuildAuthConfig(cfg *config.Config, log *zerolog.Logger) (auth.Config, error) {
	secret := cfg.GetString("auth.secret")
	if secret == "" {
		return auth.Config{}, fmt.Errorf("auth.secret is required")
	}

	expiration := time.Duration(cfg.GetInt("auth.token_ttl_minutes")) * time.Minute
	if expiration == 0 {
		expiration = 24 * time.Hour
		log.Warn().Msg("auth.token_ttl_minutes not set, falling back to 24h")
	}

	return auth.Config{
		Secret:     secret,
		Issuer:     cfg.GetString("auth.issuer"),
		Expiration: expiration,
	}, nil
}

func BuildMailerConfig(cfg *config.Config, log *zerolog.Logger) mailer.Config {
	mc := mailer.Config{
		Host:     cfg.GetString("mailer.host"),
		Port:     cfg.GetString("mailer.port"),
		From:     cfg.GetString("mailer.from"),
		Password: cfg.GetString("mailer.password"),
	}
	if mc.Host == "" {
		log.Warn().Msg("mailer.host not set, notification emails will fail")
	}
	return mc
}
