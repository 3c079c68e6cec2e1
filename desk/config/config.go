package config

import (
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/lending-desk/pkg/auth"
	"github.com/Astemirdum/lending-desk/pkg/circuit_breaker"
	"github.com/Astemirdum/lending-desk/pkg/kafka"
	"github.com/Astemirdum/lending-desk/pkg/logger"
	"github.com/Astemirdum/lending-desk/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"15s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE" default:"15s"`
}

type Upload struct {
	Dir string `yaml:"dir" envconfig:"UPLOAD_DIR" default:"uploads/images"`
	// PublicURL prefixes image_url in book payloads.
	PublicURL string `yaml:"publicURL" envconfig:"PUBLIC_URL" default:"http://127.0.0.1:8080"`
	MaxBytes  int64  `yaml:"maxBytes" envconfig:"UPLOAD_MAX_BYTES" default:"10485760"`
}

type Lending struct {
	LoanPeriod time.Duration `yaml:"loanPeriod" envconfig:"LOAN_PERIOD" default:"336h"`
}

type Config struct {
	Server   HTTPServer             `yaml:"server"`
	Database postgres.DB            `yaml:"db"`
	Log      logger.Log             `yaml:"log"`
	Auth     auth.Config            `yaml:"auth"`
	Upload   Upload                 `yaml:"upload"`
	Lending  Lending                `yaml:"lending"`
	Kafka    kafka.Config           `yaml:"kafka"`
	Breaker  circuit_breaker.Config `yaml:"breaker"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment; options are applied afterwards and win.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		for _, op := range ops {
			op(&config)
		}
		cfg = &config
	})

	return cfg
}
