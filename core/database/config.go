package database

// Config holds configuration for the database connection.
type Config struct {
	// DSN is the SQLite data source. The default keeps the database in memory
	// and shares it between the pool's connections.
	DSN string `mapstructure:"dsn" default:"file::memory:?cache=shared"`
	// Debug logs every SQL statement through gorm.
	Debug bool `mapstructure:"debug" default:"false"`
}
