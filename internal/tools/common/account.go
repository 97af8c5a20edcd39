package common

// GetAccountFromArgs extracts the account name from request arguments.
// Falls back to "default" when no account is given, matching the token
// file naming used by the google package.
func GetAccountFromArgs(args map[string]interface{}) string {
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	return "default"
}
