package config

import "os"

type Config struct {
	Port        string
	BackendURL  string
	FrontendURL string
	InvoiceDir  string

	DB       DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Midtrans MidtransConfig
	WABlast  WABlastConfig
	Hotel    HotelInfo
	Auth     AuthConfig
	Payment  PaymentPolicy
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// RedisConfig with an empty Host disables the room cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// KafkaConfig with an empty Broker disables the booking event stream.
type KafkaConfig struct {
	Broker string
	Topic  string
}

type MidtransConfig struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
}

type WABlastConfig struct {
	APIURL    string
	SessionID string
	Token     string
}

type HotelInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
	Website string
}

type AuthConfig struct {
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
}

type PaymentPolicy struct {
	// TrustFrontend controls whether the confirm endpoint settles a payment
	// even when the gateway status query fails or disagrees.
	TrustFrontend bool
}

func Load() Config {
	port := getEnv("PORT", "5000")

	return Config{
		Port:        port,
		BackendURL:  getEnv("BACKEND_URL", "http://localhost:"+port),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		InvoiceDir:  getEnv("INVOICE_DIR", "invoices"),
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "bookingdb"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Kafka: KafkaConfig{
			Broker: getEnv("KAFKA_BROKER", ""),
			Topic:  getEnv("KAFKA_TOPIC", "booking_events"),
		},
		Midtrans: MidtransConfig{
			ServerKey:    getEnv("MIDTRANS_SERVER_KEY", ""),
			ClientKey:    getEnv("MIDTRANS_CLIENT_KEY", ""),
			IsProduction: getEnv("MIDTRANS_IS_PRODUCTION", "false") == "true",
		},
		WABlast: WABlastConfig{
			APIURL:    getEnv("WA_BLAST_API_URL", ""),
			SessionID: getEnv("WA_BLAST_SESSION_ID", ""),
			Token:     getEnv("WA_BLAST_TOKEN", ""),
		},
		Hotel: HotelInfo{
			Name:    getEnv("HOTEL_NAME", "Mimpi Bungalow"),
			Address: getEnv("HOTEL_ADDRESS", "Jl. Pantai Berawa No. 88, Canggu, Bali 80361, Indonesia"),
			Phone:   getEnv("HOTEL_PHONE", "+62 361 847 6888"),
			Email:   getEnv("HOTEL_EMAIL", "reservations@mimpibungalow.com"),
			Website: getEnv("HOTEL_WEBSITE", "www.mimpibungalow.com"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "default-secret"),
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@mimpibungalow.com"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "mimpi2024"),
		},
		Payment: PaymentPolicy{
			TrustFrontend: getEnv("PAYMENT_TRUST_FRONTEND", "true") == "true",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
