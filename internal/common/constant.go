// Package common contains shared constants and sentinel errors used across
// tripkeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// UserIDField is the document field holding the owning identity.
const UserIDField = "userId"
