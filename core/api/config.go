package api

// Config holds connection settings for the remote GraphQL endpoint.
type Config struct {
	// URL is the GraphQL endpoint of the tenant.
	URL string `mapstructure:"url" default:"https://api.crystallize.com/graphql"`
	// AccessTokenID and AccessTokenSecret authenticate with a token pair.
	AccessTokenID     string `mapstructure:"access_token_id" default:""`
	AccessTokenSecret string `mapstructure:"access_token_secret" default:""`
	// StaticAuthToken authenticates with a single static token.
	StaticAuthToken string `mapstructure:"static_auth_token" default:""`
	// SessionID authenticates with a browser session cookie.
	SessionID string `mapstructure:"session_id" default:""`
	// TimeoutSeconds bounds a single HTTP round trip.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
	// InitialWorkers is the starting concurrency limit of the scheduler.
	InitialWorkers int `mapstructure:"initial_workers" default:"1"`
	// Verbosity is the request logging level of the scheduler: silent, normal or verbose.
	Verbosity string `mapstructure:"verbosity" default:"normal"`
}

const (
	VerbositySilent  = "silent"
	VerbosityNormal  = "normal"
	VerbosityVerbose = "verbose"
)
