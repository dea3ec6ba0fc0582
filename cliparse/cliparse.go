package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	DatabaseURL      string
	DatabaseType     string
	AdminKeySalt     string
	VoterTokenSalt   string
	MaxSubscriptions int
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string

	flags := flag.NewFlagSet("mvp-vote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	flags.IntVar(&cfg.Port, "p", 0, "Server port")
	flags.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	flags.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	flags.IntVar(&cfg.MaxSubscriptions, "max-subscriptions", 0, "Maximum live leaderboard subscriptions")
	flags.StringVar(&envFile, "env-file", ".env", "Optional dotenv file")

	// Secrets (prefer env variables, but allow CLI for dev)
	flags.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	flags.StringVar(&cfg.VoterTokenSalt, "voter-salt", "", "Voter token salt (prefer env)")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	// Values already in the environment win over the dotenv file
	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", 3318)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q (sqlite or postgres)", cfg.DatabaseType)
	}

	if cfg.MaxSubscriptions == 0 {
		n, err := envInt("MAX_SUBSCRIPTIONS", 1024)
		if err != nil {
			return Config{}, err
		}
		cfg.MaxSubscriptions = n
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.VoterTokenSalt == "" {
		cfg.VoterTokenSalt = os.Getenv("VOTER_TOKEN_SALT")
	}
	if cfg.VoterTokenSalt == "" {
		return Config{}, errors.New("VOTER_TOKEN_SALT required")
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func envInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", name)
	}
	return n, nil
}
