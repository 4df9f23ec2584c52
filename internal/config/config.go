package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string `yaml:"env" env-default:"local"`
	MigrationsDir string `yaml:"migrations_dir" env-default:"./migrations"`
	SeedDemo      bool   `yaml:"seed_demo" env-default:"false"`
	HTTPServer    `yaml:"http_server"`
	DB            `yaml:"db"`
	Admin         `yaml:"admin"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type DB struct {
	User      string `yaml:"user" env:"DB_USER" env-default:"root"`
	Password  string `yaml:"password" env:"DB_PASSWORD"`
	Host      string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port      string `yaml:"port" env:"DB_PORT" env-default:"3306"`
	Name      string `yaml:"name" env:"DB_NAME" env-default:"erp"`
	ParseTime bool   `yaml:"parse_time" env-default:"true"`
}

type Admin struct {
	Login    string `yaml:"login" env:"ADMIN_LOGIN" env-default:"admin"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}
