package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Generator GeneratorConfig
	Quiz      QuizConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	// Для 'single', если не пуст, используется первый адрес из списка.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single' (для обратной совместимости).
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: Максимальное количество попыток переподключения (-1 - бесконечно).
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff: Минимальный интервал между попытками (в миллисекундах).
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`

	// MaxRetryBackoff: Максимальный интервал между попытками (в миллисекундах).
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// GeneratorConfig содержит настройки внешнего AI-сервиса генерации викторин.
// Сервис должен быть совместим с OpenAI chat/completions API.
type GeneratorConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
	// MaxAttempts — сколько раз повторять запрос при невалидном ответе,
	// прежде чем перейти к структурному ремонту
	MaxAttempts int `mapstructure:"max_attempts"`
}

// QuizConfig содержит настройки викторин и попыток
type QuizConfig struct {
	// QuestionCount — количество вопросов по умолчанию при генерации
	QuestionCount int `mapstructure:"question_count"`
	// QuestionTimeSec — бюджет времени на один вопрос
	QuestionTimeSec int `mapstructure:"question_time_sec"`
	// AttemptTTLMinutes — через сколько минут неактивная попытка удаляется из памяти
	AttemptTTLMinutes int `mapstructure:"attempt_ttl_minutes"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 30)
	vip.SetDefault("generator.timeout_sec", 120)
	vip.SetDefault("generator.max_attempts", 2)
	vip.SetDefault("quiz.question_count", 30)
	vip.SetDefault("quiz.question_time_sec", 45)
	vip.SetDefault("quiz.attempt_ttl_minutes", 120)

	// 2. Привязываем переменные окружения ЯВНО
	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для секции Generator
	vip.BindEnv("generator.base_url", "GENERATOR_BASE_URL")
	vip.BindEnv("generator.api_key", "GENERATOR_API_KEY")
	vip.BindEnv("generator.model", "GENERATOR_MODEL")
	vip.BindEnv("generator.timeout_sec", "GENERATOR_TIMEOUT_SEC")
	vip.BindEnv("generator.max_attempts", "GENERATOR_MAX_ATTEMPTS")

	// Привязка для секции Quiz
	vip.BindEnv("quiz.question_count", "QUIZ_QUESTION_COUNT")
	vip.BindEnv("quiz.question_time_sec", "QUIZ_QUESTION_TIME_SEC")
	vip.BindEnv("quiz.attempt_ttl_minutes", "QUIZ_ATTEMPT_TTL_MINUTES")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")

	// 3. Устанавливаем путь к файлу конфигурации
	if configPath != "" {
		vip.SetConfigFile(configPath)
		// 4. Пытаемся прочитать файл конфигурации (не страшно, если его нет, т.к. есть BindEnv)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 5. Анмаршалим конфигурацию (Viper объединит значения из файла и привязанных env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Generator Base URL: %s", cfg.Generator.BaseURL)
		log.Printf("Generator API Key Set: %t", cfg.Generator.APIKey != "")
		log.Printf("Quiz Question Count: %d", cfg.Quiz.QuestionCount)
		log.Printf("Quiz Question Time: %d sec", cfg.Quiz.QuestionTimeSec)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	// 7. Проверка обязательных параметров
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Generator.BaseURL == "" {
		return nil, fmt.Errorf("generator base URL is required in config (check GENERATOR_BASE_URL env var)")
	}
	if cfg.Quiz.QuestionTimeSec <= 0 {
		return nil, fmt.Errorf("quiz.question_time_sec must be positive")
	}

	return &cfg, nil
}
