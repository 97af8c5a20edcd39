package google

// DefaultOAuthScopes are the Google OAuth scopes the scheduler needs.
// Calendar access is read-only: the engine reads events and free/busy
// data but never writes to anyone's calendar.
var DefaultOAuthScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Calendar scopes
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/calendar.freebusy",
}
