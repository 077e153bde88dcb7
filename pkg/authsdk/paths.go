package authsdk

// Identity API endpoints.
const (
	PathLogin         = "/api/v1/auth/login"
	PathSignup        = "/api/v1/auth/signup"
	PathLogout        = "/api/v1/auth/logout"
	PathRefresh       = "/api/v1/auth/refresh"
	PathMFAEnable     = "/api/v1/2fa/enable"
	PathMFAVerify     = "/api/v1/2fa/verify"
	PathOAuthURL      = "/api/v1/oauth/authorize"
	PathOAuthCallback = "/api/v1/oauth/callback"
)
