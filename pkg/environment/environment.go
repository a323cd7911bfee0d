package environment

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/kdeps/intake/pkg"
)

const (
	// DotEnvFileName is the optional file holding environment overrides.
	DotEnvFileName = ".env"
	// AppName names the per-user config directory under XDG_CONFIG_HOME.
	AppName = "intake"
)

// Environment holds environment configurations loaded from the OS or defaults.
type Environment struct {
	Home               string `env:"HOME"`
	Pwd                string `env:"PWD"`
	UploadDir          string `env:"UPLOAD_DIR,default=./uploads"`
	Host               string `env:"HOST,default=0.0.0.0"`
	Port               int    `env:"PORT,default=5000"`
	APIToken           string `env:"API_TOKEN"`
	CORSOrigins        string `env:"CORS_ORIGINS,default=*"`
	TrustedProxies     string `env:"TRUSTED_PROXIES"`
	MaxUploadSize      string `env:"MAX_UPLOAD_SIZE,default=512MB"`
	ArchiveMemoryLimit string `env:"ARCHIVE_MEMORY_LIMIT,default=64MB"`
	Debug              string `env:"DEBUG,default=0"`
	NonInteractive     string `env:"NON_INTERACTIVE,default=0"`
	DotEnvFile         string
	Extras             env.EnvSet
}

// findDotEnv searches for a .env file in the working directory, then in the
// user's XDG config directory.
func findDotEnv(fs afero.Fs, pwd string) string {
	candidates := []string{}
	if pwd != "" {
		candidates = append(candidates, filepath.Join(pwd, DotEnvFileName))
	}
	candidates = append(candidates, filepath.Join(xdg.ConfigHome, AppName, DotEnvFileName))

	for _, candidate := range candidates {
		if exists, err := afero.Exists(fs, candidate); err == nil && exists {
			return candidate
		}
	}
	return ""
}

// applyDotEnv sets every variable from the file that is not already present
// in the process environment.
func applyDotEnv(fs afero.Fs, path string) error {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}

	envMap, err := godotenv.Parse(bytes.NewReader(content))
	if err != nil {
		return err
	}

	for key, value := range envMap {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}

// NewEnvironment initializes and returns a new Environment based on provided or default settings.
func NewEnvironment(fs afero.Fs, environ *Environment) (*Environment, error) {
	if environ != nil {
		// Explicit environments (tests, embedding) are taken as-is apart from defaults.
		out := *environ
		out.NonInteractive = "1"
		out.applyDefaults()
		return &out, nil
	}

	dotEnv := findDotEnv(fs, os.Getenv("PWD"))
	if dotEnv != "" {
		if err := applyDotEnv(fs, dotEnv); err != nil {
			return nil, err
		}
	}

	environment := &Environment{}
	extras, err := env.UnmarshalFromEnviron(environment)
	if err != nil {
		return nil, err
	}
	environment.Extras = extras
	environment.DotEnvFile = dotEnv
	environment.applyDefaults()

	return environment, nil
}

func (e *Environment) applyDefaults() {
	e.UploadDir = pkg.OrDefault(e.UploadDir, pkg.DefaultUploadDir)
	e.Host = pkg.OrDefault(e.Host, pkg.DefaultHost)
	e.Port = pkg.OrDefault(e.Port, pkg.DefaultPort)
	e.CORSOrigins = pkg.OrDefault(e.CORSOrigins, pkg.DefaultCORSOrigins)
	e.MaxUploadSize = pkg.OrDefault(e.MaxUploadSize, pkg.DefaultMaxUploadSize)
	e.ArchiveMemoryLimit = pkg.OrDefault(e.ArchiveMemoryLimit, pkg.DefaultArchiveMemoryLimit)
}

// IsDebug reports whether DEBUG is switched on.
func (e *Environment) IsDebug() bool {
	return e.Debug == "1" || strings.EqualFold(e.Debug, "true")
}

// NonInteractiveMode parses NON_INTERACTIVE.
//
//	"", "0", "false", "no"  -> interactive
//	"1", "true", "yes"      -> non-interactive, default behavior
//	"y", "n"                -> non-interactive, that answer to every prompt
func (e *Environment) NonInteractiveMode() (nonInteractive bool, answer string) {
	value := strings.ToLower(strings.TrimSpace(e.NonInteractive))
	switch value {
	case "", "0", "false", "no":
		return false, ""
	case "1", "true", "yes":
		return true, ""
	default:
		return true, value
	}
}

// IsNonInteractive reports whether prompts must be skipped.
func (e *Environment) IsNonInteractive() bool {
	nonInteractive, _ := e.NonInteractiveMode()
	return nonInteractive
}

// MaxUploadBytes parses MAX_UPLOAD_SIZE ("512MB", "1GiB", "1048576").
func (e *Environment) MaxUploadBytes() (int64, error) {
	return parseSize(e.MaxUploadSize)
}

// ArchiveMemoryLimitBytes parses ARCHIVE_MEMORY_LIMIT.
func (e *Environment) ArchiveMemoryLimitBytes() (int64, error) {
	return parseSize(e.ArchiveMemoryLimit)
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (e *Environment) AllowedOrigins() []string {
	return splitList(e.CORSOrigins)
}

// TrustedProxyList splits TRUSTED_PROXIES on commas.
func (e *Environment) TrustedProxyList() []string {
	return splitList(e.TrustedProxies)
}

func parseSize(value string) (int64, error) {
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
