package settings

import (
	"bufio"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

var Settings *AppSettings

func NewSettings() *AppSettings {
	settings := AppSettings{
		Domain:         getEnvOrDefault("SIMPLEQA_DOMAIN", "localhost"),
		Port:           getEnvOrDefault("SIMPLEQA_PORT", ":8080"),
		DatabaseDriver: getEnvOrDefault("SIMPLEQA_DB_DRIVER", DriverSQLite),
		DatabaseURL:    getEnvOrDefault("SIMPLEQA_DB_PATH", "file:.///db.sqlite"),
		WorkspaceRoot:  getEnvOrDefault("SIMPLEQA_WORKSPACE_ROOT", filepath.Join(os.TempDir(), "simpleqa")),
		WebhookSource:  getEnvOrDefault("SIMPLEQA_WEBHOOK_SOURCE", "simple-qa"),
		SecretKey:      os.Getenv("SIMPLEQA_SECRET_KEY"),
		SMTP: SMTPSettings{
			Host:     os.Getenv("SIMPLEQA_SMTP_HOST"),
			Port:     getEnvIntOrDefault("SIMPLEQA_SMTP_PORT", 587),
			Username: os.Getenv("SIMPLEQA_SMTP_USERNAME"),
			Password: os.Getenv("SIMPLEQA_SMTP_PASSWORD"),
			From:     getEnvOrDefault("SIMPLEQA_SMTP_FROM", "simple-qa@localhost"),
		},
	}
	if !strings.HasPrefix(settings.Port, ":") {
		settings.Port = ":" + settings.Port
	}
	return &settings
}

func getEnvOrDefault(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid integer in %s, using %d\n", key, defaultValue)
		return defaultValue
	}
	return v
}

type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s SMTPSettings) Enabled() bool {
	return s.Host != ""
}

func (s SMTPSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type AppSettings struct {
	Domain         string
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	WorkspaceRoot  string
	WebhookSource  string
	SecretKey      string
	SMTP           SMTPSettings
}

func (as *AppSettings) BaseURL() string {
	if as.Domain == "localhost" {
		return fmt.Sprintf("http://%s%s", as.Domain, as.Port)
	} else {
		return fmt.Sprintf("https://%s", as.Domain)
	}
}

// DatabaseString returns the DSN for the configured driver. SQLite gets
// separate read-only and read-write pools; postgres ignores readonly.
func (as *AppSettings) DatabaseString(readonly bool) string {
	if as.DatabaseDriver == DriverPostgres {
		return as.DatabaseURL
	}

	params := make(url.Values)
	params.Add("_journal_mode", "WAL")
	params.Add("_busy_timeout", "5000")
	params.Add("_synchronous", "NORMAL")
	params.Add("_cache_size", "-20000")
	params.Add("_foreign_keys", "ON")
	if readonly {
		params.Add("mode", "ro")
	} else {
		params.Add("_txlock", "IMMEDIATE")
		params.Add("mode", "rwc")
	}

	return as.DatabaseURL + "?" + params.Encode()
}

// ReadDotenv exports KEY=value lines from path into the environment. A
// missing file is not an error.
func ReadDotenv(path string) {
	re := regexp.MustCompile(`^[^0-9][A-Z0-9_]+=.+$`)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		log.Fatal("err opening dotenv: ", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) > 0 && line[0] != '#' && re.Match(line) {
			name, value, _ := strings.Cut(string(line), "=")
			name = strings.TrimSpace(name)
			value = strings.TrimSpace(value)
			value = strings.Trim(value, `"`)
			os.Setenv(name, value)
		}
	}
}
