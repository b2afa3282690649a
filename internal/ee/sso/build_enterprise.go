//go:build enterprise
// +build enterprise

package sso

// Enterprise build uses real SSO implementation
// This file would be replaced in enterprise builds

// import "brokle/internal/ee-real/sso"

// func New() SSOProvider {
//     return sso.NewEnterpriseSSOProvider()
// }

// Note: Real implementation would support SAML, OIDC, OAuth2, etc.
