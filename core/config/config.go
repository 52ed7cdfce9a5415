package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"tenant-bootstrapper/core/api"
	"tenant-bootstrapper/core/database"
	"tenant-bootstrapper/core/logger"
	"tenant-bootstrapper/core/server"
	"tenant-bootstrapper/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application, one section per concern.
type Config struct {
	// API holds the GraphQL endpoint and credentials of the tenant.
	API api.Config `mapstructure:"api"`
	// Bootstrap holds the defaults of a bootstrap run.
	Bootstrap Bootstrap `mapstructure:"bootstrap"`
	// Server holds configuration for the HTTP status server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage media is uploaded to.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the journal database.
	Database database.Config `mapstructure:"database"`
}

// Bootstrap holds the run settings that command line flags may override.
type Bootstrap struct {
	// TenantID is the id of the tenant to bootstrap.
	TenantID string `mapstructure:"tenant_id" default:""`
	// Language is the target language. Empty means the tenant default.
	Language string `mapstructure:"language" default:""`
	// Topics is the topic policy of existing items: replace or amend.
	Topics string `mapstructure:"topics" default:"replace"`
	// Publish is the publish policy: auto or publish.
	Publish string `mapstructure:"publish" default:"auto"`
	// FallbackFolder is the external reference of the folder receiving items
	// whose parent cannot be found.
	FallbackFolder string `mapstructure:"fallback_folder" default:""`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is fine: deployments configure through the environment.
	_ = godotenv.Overload(filepath.Join(path, ".env"))

	v := viper.New()

	bindValues(v, Config{}, "")

	// BOOTSTRAP_TENANT_ID -> bootstrap.tenant_id
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return &config, nil
}

// bindValues registers the `default` tag of every `mapstructure` field of
// iface, recursing into nested sections. Every key gets a default, even an
// empty one, since AutomaticEnv only sees registered keys.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
