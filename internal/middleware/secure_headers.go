package middleware

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecureHeadersConfig contains configuration for secure headers
type SecureHeadersConfig struct {
	UseHSTS               bool
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	UseCSP        bool
	CSPDirectives map[string]string

	UseXFrameOptions     bool
	XFrameOptions        string
	UseXSSProtection     bool
	UseNoSniff           bool
	UseReferrerPolicy    bool
	ReferrerPolicy       string
	UsePermissionsPolicy bool
	PermissionsPolicy    string
}

// DefaultSecureHeadersConfig returns the default secure headers configuration
func DefaultSecureHeadersConfig() SecureHeadersConfig {
	return SecureHeadersConfig{
		UseHSTS:               true,
		HSTSMaxAge:            365 * 24 * time.Hour,
		HSTSIncludeSubdomains: true,
		HSTSPreload:           true,

		UseCSP: true,
		CSPDirectives: map[string]string{
			"default-src": "'self'",
			"img-src":     "'self' data:",
			"connect-src": "'self'",
			"object-src":  "'none'",
			"base-uri":    "'self'",
			"form-action": "'self'",
		},

		UseXFrameOptions:     true,
		XFrameOptions:        "DENY",
		UseXSSProtection:     true,
		UseNoSniff:           true,
		UseReferrerPolicy:    true,
		ReferrerPolicy:       "strict-origin-when-cross-origin",
		UsePermissionsPolicy: true,
		PermissionsPolicy:    "camera=(), microphone=(), geolocation=(), interest-cohort=()",
	}
}

// sensitiveCachePaths must never be cached by intermediaries
var sensitiveCachePaths = map[string]bool{
	"/api/auth/login":              true,
	"/api/auth/signup":             true,
	"/api/auth/invitations/accept": true,
	"/api/profile/password":        true,
}

// SecureHeadersMiddleware adds security headers to responses
func SecureHeadersMiddleware(config SecureHeadersConfig) gin.HandlerFunc {
	hsts := buildHSTS(config)
	csp := buildCSP(config.CSPDirectives)

	return func(c *gin.Context) {
		if config.UseHSTS {
			c.Header("Strict-Transport-Security", hsts)
		}
		if config.UseCSP {
			c.Header("Content-Security-Policy", csp)
		}
		if config.UseXFrameOptions {
			c.Header("X-Frame-Options", config.XFrameOptions)
		}
		if config.UseXSSProtection {
			c.Header("X-XSS-Protection", "1; mode=block")
		}
		if config.UseNoSniff {
			c.Header("X-Content-Type-Options", "nosniff")
		}
		if config.UseReferrerPolicy {
			c.Header("Referrer-Policy", config.ReferrerPolicy)
		}
		if config.UsePermissionsPolicy {
			c.Header("Permissions-Policy", config.PermissionsPolicy)
		}

		if sensitiveCachePaths[c.Request.URL.Path] {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}

		c.Next()
	}
}

func buildHSTS(config SecureHeadersConfig) string {
	value := "max-age=" + strconv.FormatInt(int64(config.HSTSMaxAge.Seconds()), 10)
	if config.HSTSIncludeSubdomains {
		value += "; includeSubDomains"
	}
	if config.HSTSPreload {
		value += "; preload"
	}
	return value
}

// buildCSP renders the directives in a stable order
func buildCSP(directives map[string]string) string {
	keys := make([]string, 0, len(directives))
	for k := range directives {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+directives[k])
	}
	return strings.Join(parts, "; ")
}
