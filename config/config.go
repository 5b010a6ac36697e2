package config

import "time"

type Config struct {
	Web     Web
	DB      DB
	Redis   Redis
	Upload  Upload
	Cors    Cors
	Rate    Rate
	Session Session
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:catalog"`
	DisableTLS bool   `conf:"default:true"`
}

type Redis struct {
	// Leave Address empty to run without the listing cache.
	Address  string
	Password string `conf:"mask"`
	DB       int
	TTL      time.Duration `conf:"default:60s"`
}

type Upload struct {
	Bucket    string `conf:"default:catalog-thumbnails"`
	Folder    string `conf:"default:thumbnails"`
	CDNDomain string
}

type Cors struct {
	Origin string
}

type Rate struct {
	Burst  int     `conf:"default:20"`
	Expiry int     `conf:"default:10"`
	RPS    float64 `conf:"default:10"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:24h"`
}
