package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port    string `mapstructure:"port"`
		Env     string `mapstructure:"env"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"app"`
	DB struct {
		DSN             string        `mapstructure:"dsn"`
		MaxConns        int32         `mapstructure:"max_conns"`
		MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
		CookieName    string        `mapstructure:"cookie_name"`
		SecureCookie  bool          `mapstructure:"secure_cookie"`
	} `mapstructure:"auth"`
	OAuth struct {
		GitHub struct {
			ClientID     string `mapstructure:"client_id"`
			ClientSecret string `mapstructure:"client_secret"`
			CallbackURL  string `mapstructure:"callback_url"`
		} `mapstructure:"github"`
	} `mapstructure:"oauth"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Storage struct {
		ImageBucket    string   `mapstructure:"image_bucket"`
		BackupBucket   string   `mapstructure:"backup_bucket"`
		Buckets        []string `mapstructure:"buckets"`
		MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
	} `mapstructure:"storage"`
	Guard struct {
		ProtectedPrefix string   `mapstructure:"protected_prefix"`
		LoginPath       string   `mapstructure:"login_path"`
		DashboardPath   string   `mapstructure:"dashboard_path"`
		AuthOnlyPaths   []string `mapstructure:"auth_only_paths"`
	} `mapstructure:"guard"`
	Cache struct {
		PublicProfileTTL time.Duration `mapstructure:"public_profile_ttl"`
	} `mapstructure:"cache"`
	Log struct {
		Dir    string        `mapstructure:"dir"`
		MaxAge time.Duration `mapstructure:"max_age"`
	} `mapstructure:"log"`
	Jaeger struct {
		OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
		SampleRatio  float64 `mapstructure:"sample_ratio"`
	} `mapstructure:"jaeger"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.max_conn_idle_time", "5m")
	v.SetDefault("jaeger.sample_ratio", 1.0)
	v.SetDefault("kafka.group_id", "profile-cache-group")
	v.SetDefault("auth.token_lifespan", "24h")
	v.SetDefault("auth.cookie_name", "folio_session")
	v.SetDefault("storage.image_bucket", "user-images")
	v.SetDefault("storage.backup_bucket", "backups")
	v.SetDefault("storage.buckets", []string{"user-images", "backups"})
	v.SetDefault("storage.max_upload_bytes", 5*1024*1024)
	v.SetDefault("guard.protected_prefix", "/dashboard")
	v.SetDefault("guard.login_path", "/login")
	v.SetDefault("guard.dashboard_path", "/dashboard")
	v.SetDefault("guard.auth_only_paths", []string{"/login", "/signup"})
	v.SetDefault("cache.public_profile_ttl", "60s")
	v.SetDefault("log.max_age", "168h")
}

// LoadConfig reads .env, then config.yaml from paths (default "."), then the
// environment. Later sources win.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	err = godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	setDefaults(v)

	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.base_url", "APP_BASE_URL")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("db.max_conns", "DB_MAX_CONNS")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")
	v.BindEnv("auth.cookie_name", "SESSION_COOKIE_NAME")
	v.BindEnv("auth.secure_cookie", "SESSION_COOKIE_SECURE")

	v.BindEnv("oauth.github.client_id", "GITHUB_CLIENT_ID")
	v.BindEnv("oauth.github.client_secret", "GITHUB_CLIENT_SECRET")
	v.BindEnv("oauth.github.callback_url", "GITHUB_CALLBACK_URL")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")
	v.BindEnv("storage.image_bucket", "STORAGE_IMAGE_BUCKET")
	v.BindEnv("storage.backup_bucket", "STORAGE_BACKUP_BUCKET")

	v.BindEnv("cache.public_profile_ttl", "PUBLIC_PROFILE_CACHE_TTL")
	v.BindEnv("log.dir", "LOG_DIR")
	v.BindEnv("jaeger.otlp_endpoint", "OTLP_ENDPOINT")
	v.BindEnv("jaeger.sample_ratio", "OTLP_SAMPLE_RATIO")

	err = v.Unmarshal(&cfg)
	if err != nil {
		return
	}

	// KAFKA_BROKERS arrives as a single comma separated string
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}
	return
}
