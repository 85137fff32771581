package common

// Content headers applied to documents written back after an editor save.
const (
	SavedContentType  = "application/octet-stream"
	SavedCacheControl = "no-cache"
)

// AuthorizationHeaderName carries the editor's callback JWT ("Bearer <token>")
// when it is not embedded in the callback body.
const AuthorizationHeaderName = "Authorization"
