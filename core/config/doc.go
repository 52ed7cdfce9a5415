// Package config provides configuration management for the tenant bootstrapper.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - API: GraphQL endpoint, credentials, timeout, scheduler concurrency and verbosity
//   - Bootstrap: tenant id, target language, topic and publish policies, fallback folder
//   - Server: HTTP status server port and API key
//   - Storage: S3/MinIO credentials, bucket and key prefix for media
//   - Database: SQLite DSN of the run journal
//   - Log: Logging level and format
//
// Environment keys join the section and the field with an underscore,
// e.g. API_URL or BOOTSTRAP_TENANT_ID.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Bootstrap.TenantID)
package config
