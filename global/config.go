package global

import (
	"crypto/ed25519"
	"os"

	"github.com/go-redis/redis_rate/v10"
	"gopkg.in/yaml.v3"
)

// Conf global config
var Conf Config

// Public and Private key of the server (loaded from serverKeysPath in conf.yaml)
var PublicKey ed25519.PublicKey
var PrivateKey ed25519.PrivateKey
var ServerKeysCreated int64

// Global rate limiter
var RateLimiter *redis_rate.Limiter

type Config struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	Scheme     string           `yaml:"scheme"`
	Mode       string           `yaml:"mode"`
	Version    string           `yaml:"version"`
	CouchDB    CouchDBConfig    `yaml:"couchdb"`
	Redis      RedisConfig      `yaml:"redis"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Queue      Queue            `yaml:"queue"`
	Rollcall   RollcallConfig   `yaml:"rollcall"`
}

type CouchDBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Scheme   string `yaml:"scheme"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RollcallConfig struct {
	ServerKeysPath string `yaml:"serverKeysPath"`
	ServerDomain   string `yaml:"serverDomain"`
	// geofence radius applied when a session doesn't carry its own
	DefaultRadiusMeters float64 `yaml:"defaultRadiusMeters"`
	// default lifetime of newly created attendance sessions
	SessionTTLMinutes int `yaml:"sessionTTLMinutes"`
	// lifetime of issued bearer tokens
	TokenExpiryHours int `yaml:"tokenExpiryHours"`
}

type PrometheusConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	Username string `yaml:"username"`
}

type Queue struct {
	Concurrency int `yaml:"concurrency"`
}

// LoadConfig reads and parses the yaml configuration file into conf
func LoadConfig(path string, conf *Config) error {
	confBytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(confBytes, conf)
}
