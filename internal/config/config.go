package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	ShippingFlatLine = "flat_line"
	ShippingOptions  = "shipping_options"

	CustomerAnyField        = "any_field"
	CustomerCompleteAddress = "complete_address"

	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Port    string `koanf:"port"`
	DBDSN   string `koanf:"db_dsn"`
	LogFile string `koanf:"log_file"`

	StripeSecretKey string `koanf:"stripe_secret_key"`
	AllowedOrigin   string `koanf:"allowed_origin"`
	SuccessURL      string `koanf:"success_url"`
	CancelURL       string `koanf:"cancel_url"`

	// Comma separated ISO codes; empty means DefaultAllowedCountries.
	AllowedCountriesRaw string   `koanf:"allowed_countries"`
	AllowedCountries    []string `koanf:"-"`

	ShippingMode   string `koanf:"shipping_mode"`
	ShippingEUR    string `koanf:"shipping_eur"`
	CollectProfile bool   `koanf:"collect_profile"`
	CustomerPolicy string `koanf:"customer_policy"`

	CartBackend   string `koanf:"cart_backend"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`

	AdminUser         string `koanf:"admin_user"`
	AdminPasswordHash string `koanf:"admin_password_hash"`

	TemplatesDir string `koanf:"templates_dir"`
	StaticDir    string `koanf:"static_dir"`
}

// Load reads an optional YAML file (CONFIG_FILE) and overlays the process
// environment on top of it. Env keys are matched case-insensitively
// (STRIPE_SECRET_KEY -> stripe_secret_key).
func Load() (Config, error) {
	k := koanf.New(".")
	// collect_profile defaults to true; a missing key must not read as false.
	_ = k.Set("collect_profile", true)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	// Empty variables count as unset so defaults still apply.
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	log.Printf("[config] PORT=%s DB_DSN=%s CART_BACKEND=%s SHIPPING_MODE=%s COLLECT_PROFILE=%t CUSTOMER_POLICY=%s ALLOWED_ORIGIN=%s countries=%d",
		cfg.Port, cfg.DBDSN, cfg.CartBackend, cfg.ShippingMode, cfg.CollectProfile, cfg.CustomerPolicy, cfg.AllowedOrigin, len(cfg.AllowedCountries))
	if cfg.StripeSecretKey == "" {
		log.Printf("[config] STRIPE_SECRET_KEY is empty; checkout calls will fail")
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "4242"
	}
	if c.DBDSN == "" {
		c.DBDSN = "maisonaurore.db"
	}
	if c.AllowedOrigin == "" {
		c.AllowedOrigin = "*"
	}
	if c.SuccessURL == "" {
		c.SuccessURL = "https://pixmell.net/success.html"
	}
	if c.CancelURL == "" {
		c.CancelURL = "https://pixmell.net/cancel.html"
	}
	if c.ShippingMode == "" {
		c.ShippingMode = ShippingOptions
	}
	if c.ShippingEUR == "" {
		c.ShippingEUR = "5.99"
	}
	if c.CustomerPolicy == "" {
		c.CustomerPolicy = CustomerAnyField
	}
	if c.CartBackend == "" {
		c.CartBackend = BackendSQLite
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.AdminUser == "" {
		c.AdminUser = "admin"
	}
	if c.TemplatesDir == "" {
		c.TemplatesDir = "./web/templates"
	}
	if c.StaticDir == "" {
		c.StaticDir = "./web/static"
	}
	c.AllowedCountries = ParseCountries(c.AllowedCountriesRaw)
	if len(c.AllowedCountries) == 0 {
		c.AllowedCountries = DefaultAllowedCountries
	}
}

func (c Config) Validate() error {
	switch c.ShippingMode {
	case ShippingFlatLine, ShippingOptions:
	default:
		return fmt.Errorf("shipping_mode %q: want %s or %s", c.ShippingMode, ShippingFlatLine, ShippingOptions)
	}
	switch c.CustomerPolicy {
	case CustomerAnyField, CustomerCompleteAddress:
	default:
		return fmt.Errorf("customer_policy %q: want %s or %s", c.CustomerPolicy, CustomerAnyField, CustomerCompleteAddress)
	}
	switch c.CartBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("cart_backend %q: want sqlite, redis or memory", c.CartBackend)
	}
	return nil
}

// ParseCountries splits a comma separated list, trimming and upper-casing
// each code and dropping blanks.
func ParseCountries(raw string) []string {
	var out []string
	for _, c := range strings.Split(raw, ",") {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

var DefaultAllowedCountries = []string{
	"AD", "AE", "AF", "AG", "AI", "AL", "AM", "AO", "AQ", "AR", "AS", "AT", "AU", "AW", "AX", "AZ",
	"BA", "BB", "BD", "BE", "BF", "BG", "BH", "BI", "BJ", "BL", "BM", "BN", "BO", "BQ", "BR", "BS", "BT", "BV", "BW", "BY", "BZ",
	"CA", "CC", "CD", "CF", "CG", "CH", "CI", "CK", "CL", "CM", "CN", "CO", "CR", "CU", "CV", "CW", "CX", "CY", "CZ",
	"DE", "DJ", "DK", "DM", "DO", "DZ",
	"EC", "EE", "EG", "EH", "ER", "ES", "ET",
	"FI", "FJ", "FK", "FM", "FO", "FR",
	"GA", "GB", "GD", "GE", "GF", "GG", "GH", "GI", "GL", "GM", "GN", "GP", "GQ", "GR", "GS", "GT", "GU", "GW", "GY",
	"HK", "HM", "HN", "HR", "HT", "HU",
	"ID", "IE", "IL", "IM", "IN", "IO", "IQ", "IR", "IS", "IT",
	"JE", "JM", "JO", "JP",
	"KE", "KG", "KH", "KI", "KM", "KN", "KP", "KR", "KW", "KY", "KZ",
	"LA", "LB", "LC", "LI", "LK", "LR", "LS", "LT", "LU", "LV", "LY",
	"MA", "MC", "MD", "ME", "MF", "MG", "MH", "MK", "ML", "MM", "MN", "MO", "MP", "MQ", "MR", "MS", "MT", "MU", "MV", "MW", "MX", "MY", "MZ",
	"NA", "NC", "NE", "NF", "NG", "NI", "NL", "NO", "NP", "NR", "NU", "NZ",
	"OM",
	"PA", "PE", "PF", "PG", "PH", "PK", "PL", "PM", "PN", "PR", "PS", "PT", "PW", "PY",
	"QA",
	"RE", "RO", "RS", "RU", "RW",
	"SA", "SB", "SC", "SD", "SE", "SG", "SH", "SI", "SJ", "SK", "SL", "SM", "SN", "SO", "SR", "SS", "ST", "SV", "SX", "SY", "SZ",
	"TC", "TD", "TF", "TG", "TH", "TJ", "TK", "TL", "TM", "TN", "TO", "TR", "TT", "TV", "TW", "TZ",
	"UA", "UG", "UM", "US", "UY", "UZ",
	"VA", "VC", "VE", "VG", "VI", "VN", "VU",
	"WF", "WS",
	"YE", "YT",
	"ZA", "ZM", "ZW",
}
