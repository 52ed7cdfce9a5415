// Package server holds the HTTP status server configuration.
//
// The serve command starts the server; this package only defines its
// settings: the listen port and the API key checked by the auth middleware.
package server
