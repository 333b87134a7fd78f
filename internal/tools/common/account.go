package common

// GetAccountFromArgs extracts the account name from request arguments.
// Tools that omit the "account" argument operate on the account named
// "default", which the registry maps through the configured default_account.
func GetAccountFromArgs(args map[string]interface{}) string {
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	return "default"
}
