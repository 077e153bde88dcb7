package httpx

// Header names shared by the SDK's outbound requests.
const (
	HeaderAccept        = "Accept"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderAPIKey        = "x-api-key"
	HeaderRequestID     = "X-Request-ID"

	ContentTypeJSON = "application/json"
)

// Bearer formats an Authorization header value.
func Bearer(token string) string {
	return "Bearer " + token
}
