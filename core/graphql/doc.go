// Package graphql builds the GraphQL documents sent to the remote API.
//
// Builders are pure: they return an api.Request and never perform I/O. The
// response paths consumers read are listed next to each builder.
package graphql
