// Package config loads studyops settings from a TOML file, an optional .env
// file and STUDYOPS_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/poiesic/studyops/core"
	"github.com/poiesic/studyops/storage"
)

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = "configs/app.toml"

// Defaults for settings the config file may omit.
const (
	DefaultPersistDir = "data/store"
	DefaultCollection = "studyops"
	DefaultRedisURL   = "redis://localhost:6379/0"
	DefaultNeo4jURI   = "neo4j://localhost:7687"
	DefaultNeo4jUser  = "neo4j"
)

// Environment variables that override file values.
const (
	EnvMaxChars      = "STUDYOPS_MAX_CHARS"
	EnvOverlap       = "STUDYOPS_OVERLAP"
	EnvPersistDir    = "STUDYOPS_PERSIST_DIR"
	EnvCollection    = "STUDYOPS_COLLECTION"
	EnvRedisURL      = "STUDYOPS_REDIS_URL"
	EnvNeo4jURI      = "STUDYOPS_NEO4J_URI"
	EnvNeo4jUser     = "STUDYOPS_NEO4J_USER"
	EnvNeo4jPassword = "STUDYOPS_NEO4J_PASSWORD"
)

var (
	// ErrConfigParse indicates the config file is not valid TOML or has
	// unknown keys.
	ErrConfigParse = errors.New("config parse failed")

	// ErrInvalidEnv indicates an override variable holds an unusable value.
	ErrInvalidEnv = errors.New("invalid environment override")
)

// Chunk holds chunking parameters.
type Chunk struct {
	MaxChars int `toml:"max_chars"`
	Overlap  int `toml:"overlap"`
}

// Store locates the chunk collection.
type Store struct {
	PersistDir string `toml:"persist_dir"`
	Collection string `toml:"collection"`
}

// Redis holds cache connection settings.
type Redis struct {
	URL string `toml:"url"`
}

// Neo4j holds graph database connection settings.
type Neo4j struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// Config is the full application configuration.
type Config struct {
	Chunk Chunk `toml:"chunk"`
	Store Store `toml:"store"`
	Redis Redis `toml:"redis"`
	Neo4j Neo4j `toml:"neo4j"`
}

// Default returns a Config populated with the named defaults.
func Default() Config {
	return Config{
		Chunk: Chunk{
			MaxChars: core.DefaultMaxChars,
			Overlap:  core.DefaultOverlap,
		},
		Store: Store{
			PersistDir: DefaultPersistDir,
			Collection: DefaultCollection,
		},
		Redis: Redis{URL: DefaultRedisURL},
		Neo4j: Neo4j{URI: DefaultNeo4jURI, User: DefaultNeo4jUser},
	}
}

// Load reads the config file at path over the defaults, applies
// environment overrides and validates the result. A missing file is not an
// error.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		dec := toml.NewDecoder(f).DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return Config{}, fmt.Errorf("%w: %s: %s", ErrConfigParse, path, strict.String())
			}
			return Config{}, fmt.Errorf("%w: %s: %w", ErrConfigParse, path, err)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, err
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without replacing ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("error loading %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if err := envInt(EnvMaxChars, &c.Chunk.MaxChars); err != nil {
		return err
	}
	if err := envInt(EnvOverlap, &c.Chunk.Overlap); err != nil {
		return err
	}
	envString(EnvPersistDir, &c.Store.PersistDir)
	envString(EnvCollection, &c.Store.Collection)
	envString(EnvRedisURL, &c.Redis.URL)
	envString(EnvNeo4jURI, &c.Neo4j.URI)
	envString(EnvNeo4jUser, &c.Neo4j.User)
	envString(EnvNeo4jPassword, &c.Neo4j.Password)
	return nil
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, key, v)
	}
	*dst = n
	return nil
}

// ChunkConfig returns the chunking parameters as a core.ChunkConfig.
func (c Config) ChunkConfig() core.ChunkConfig {
	return core.ChunkConfig{MaxChars: c.Chunk.MaxChars, Overlap: c.Chunk.Overlap}
}

// StoreConfig returns the store location as a storage.Config.
func (c Config) StoreConfig() storage.Config {
	return storage.Config{PersistDir: c.Store.PersistDir, Collection: c.Store.Collection}
}

// Validate checks the settings the ingestion path depends on.
func (c Config) Validate() error {
	if err := core.ValidateChunkConfig(c.ChunkConfig()); err != nil {
		return err
	}
	return c.StoreConfig().Validate()
}
