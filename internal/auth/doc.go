// Package auth authenticates API clients and authorises their requests.
//
// Clients are machines (orchestrators, dashboards) provisioned in the
// configuration with an Argon2id secret hash and one of two roles:
//
//   - viewer: read device status, registries and the mirrored state tree
//   - operator: everything a viewer can do, plus add/update/remove of
//     groups, flows and meters
//
// A client exchanges its secret for a short-lived HS256 access token. Tokens
// are validated by signature only; there is no refresh flow or revocation
// list, a token simply expires.
package auth
