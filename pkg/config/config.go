package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gopass/dashboard/pkg/util"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const EnvironmentPrefix = "GOPASS_"

type APISettings struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

type FeedSettings struct {
	Kind string `yaml:"kind" validate:"oneof=firebase redis gtfsrt"`
	Path string `yaml:"path" validate:"required"`

	FirebaseDatabaseURL    string `yaml:"firebase_database_url" validate:"omitempty,url"`
	FirebaseServiceAccount string `yaml:"firebase_service_account"`

	GTFSRTURL string `yaml:"gtfsrt_url" validate:"omitempty,url"`

	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`

	ReconnectInitialInterval time.Duration `yaml:"reconnect_initial_interval" validate:"gt=0"`
	ReconnectMaxInterval     time.Duration `yaml:"reconnect_max_interval" validate:"gtefield=ReconnectInitialInterval"`
	ReconnectMaxElapsedTime  time.Duration `yaml:"reconnect_max_elapsed_time" validate:"gte=0"`
}

type TrackingSettings struct {
	SpeedUnit      string        `yaml:"speed_unit" validate:"oneof=mps kmh"`
	FreshThreshold time.Duration `yaml:"fresh_threshold" validate:"gt=0"`
	MapCenterLat   float64       `yaml:"map_center_lat" validate:"gte=-90,lte=90"`
	MapCenterLng   float64       `yaml:"map_center_lng" validate:"gte=-180,lte=180"`
	EventQueue     string        `yaml:"event_queue"`
}

type RedisSettings struct {
	Address  string `yaml:"address" validate:"required"`
	Password string `yaml:"password"`
	Database int    `yaml:"database" validate:"gte=0"`
}

type SessionSettings struct {
	KeyPrefix   string `yaml:"key_prefix" validate:"required"`
	JWTSecret   string `yaml:"jwt_secret"`
	JWTIssuer   string `yaml:"jwt_issuer" validate:"required_with=JWTSecret"`
	JWTAudience string `yaml:"jwt_audience" validate:"required_with=JWTSecret"`
}

type HTTPSettings struct {
	Listen     string        `yaml:"listen" validate:"required"`
	LiveListen string        `yaml:"live_listen" validate:"required"`
	StatsTTL   time.Duration `yaml:"stats_ttl" validate:"gte=0"`

	AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,url"`
}

type LogSettings struct {
	Format         string `yaml:"format"`
	Level          string `yaml:"level"`
	FilePath       string `yaml:"file_path"`
	FileMaxAgeDays int    `yaml:"file_max_age_days" validate:"gte=0"`
}

type Settings struct {
	API      APISettings      `yaml:"api"`
	Feed     FeedSettings     `yaml:"feed"`
	Tracking TrackingSettings `yaml:"tracking"`
	Redis    RedisSettings    `yaml:"redis"`
	Session  SessionSettings  `yaml:"session"`
	HTTP     HTTPSettings     `yaml:"http"`
	Log      LogSettings      `yaml:"log"`
}

func Default() Settings {
	return Settings{
		API: APISettings{
			BaseURL: "https://gopass-backend-nlb1.onrender.com/api",
			Timeout: 30 * time.Second,
		},
		Feed: FeedSettings{
			Kind:                     "firebase",
			Path:                     "buses",
			PollInterval:             2 * time.Second,
			ReconnectInitialInterval: 1 * time.Second,
			ReconnectMaxInterval:     1 * time.Minute,
		},
		Tracking: TrackingSettings{
			SpeedUnit:      "mps",
			FreshThreshold: 2 * time.Minute,
			MapCenterLat:   -1.9441,
			MapCenterLng:   30.0619,
			EventQueue:     "tracking-events",
		},
		Redis: RedisSettings{
			Address: "localhost:6379",
		},
		Session: SessionSettings{
			KeyPrefix: "gopass:session",
		},
		HTTP: HTTPSettings{
			Listen:     ":8080",
			LiveListen: ":8081",
			StatsTTL:   30 * time.Second,
		},
		Log: LogSettings{
			Level:          "INFO",
			FileMaxAgeDays: 7,
		},
	}
}

// Load reads the optional YAML file at path on top of the defaults, then applies the
// GOPASS_ environment variables and validates the result
func Load(path string) (Settings, error) {
	settings := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return settings, err
		}

		if err := yaml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := settings.applyEnvironment(util.GetPrefixedEnvironmentVariables(EnvironmentPrefix)); err != nil {
		return settings, err
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}

	return settings, nil
}

func (s *Settings) Validate() error {
	v := validator.New()
	return v.Struct(s)
}

// ValidateSource checks the settings only the selected feed transport needs. It is left out
// of Validate so commands that never open the feed work without them.
func (f *FeedSettings) ValidateSource() error {
	switch f.Kind {
	case "firebase":
		if f.FirebaseDatabaseURL == "" {
			return errors.New("feed.firebase_database_url is required for the firebase feed")
		}
	case "gtfsrt":
		if f.GTFSRTURL == "" {
			return errors.New("feed.gtfsrt_url is required for the gtfsrt feed")
		}
	}

	return nil
}

func (s *Settings) applyEnvironment(env map[string]string) error {
	stringFields := map[string]*string{
		"API_URL":                  &s.API.BaseURL,
		"FEED_KIND":                &s.Feed.Kind,
		"FEED_PATH":                &s.Feed.Path,
		"FIREBASE_DATABASE_URL":    &s.Feed.FirebaseDatabaseURL,
		"FIREBASE_SERVICE_ACCOUNT": &s.Feed.FirebaseServiceAccount,
		"GTFSRT_URL":               &s.Feed.GTFSRTURL,
		"TRACKING_SPEED_UNIT":      &s.Tracking.SpeedUnit,
		"TRACKING_EVENT_QUEUE":     &s.Tracking.EventQueue,
		"REDIS_ADDRESS":            &s.Redis.Address,
		"REDIS_PASSWORD":           &s.Redis.Password,
		"SESSION_KEY_PREFIX":       &s.Session.KeyPrefix,
		"JWT_SECRET":               &s.Session.JWTSecret,
		"JWT_ISSUER":               &s.Session.JWTIssuer,
		"JWT_AUDIENCE":             &s.Session.JWTAudience,
		"HTTP_LISTEN":              &s.HTTP.Listen,
		"HTTP_LIVE_LISTEN":         &s.HTTP.LiveListen,
		"LOG_FORMAT":               &s.Log.Format,
		"LOG_LEVEL":                &s.Log.Level,
		"LOG_FILE":                 &s.Log.FilePath,
	}
	for key, target := range stringFields {
		if value, ok := env[key]; ok {
			*target = value
		}
	}

	if value, ok := env["HTTP_ALLOWED_ORIGINS"]; ok {
		s.HTTP.AllowedOrigins = nil
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				s.HTTP.AllowedOrigins = append(s.HTTP.AllowedOrigins, origin)
			}
		}
	}

	durations := map[string]*time.Duration{
		"API_TIMEOUT":                &s.API.Timeout,
		"FEED_POLL_INTERVAL":         &s.Feed.PollInterval,
		"FEED_RECONNECT_INITIAL":     &s.Feed.ReconnectInitialInterval,
		"FEED_RECONNECT_MAX":         &s.Feed.ReconnectMaxInterval,
		"FEED_RECONNECT_MAX_ELAPSED": &s.Feed.ReconnectMaxElapsedTime,
		"TRACKING_FRESH_THRESHOLD":   &s.Tracking.FreshThreshold,
		"HTTP_STATS_TTL":             &s.HTTP.StatsTTL,
	}
	for key, target := range durations {
		if value, ok := env[key]; ok {
			parsed, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvironmentPrefix, key, err)
			}
			*target = parsed
		}
	}

	if value, ok := env["REDIS_DATABASE"]; ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%sREDIS_DATABASE: %w", EnvironmentPrefix, err)
		}
		s.Redis.Database = n
	}

	// Kept for compatibility with the old flag used by deployment scripts
	if env["DEBUG"] == "YES" {
		s.Log.Level = "DEBUG"
	}

	return nil
}

// GetLogLevel maps the configured level name onto zerolog, defaulting to info
func (l *LogSettings) GetLogLevel() zerolog.Level {
	switch strings.ToUpper(l.Level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
