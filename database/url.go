package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL joins a server URL and a database name. Query parameters
// on the base URL are preserved and sslmode=disable is added when absent.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base, query, hasQuery := strings.Cut(strings.TrimRight(baseURL, "/"), "?")
	base = strings.TrimRight(base, "/")

	databaseURL := fmt.Sprintf("%s/%s", base, databaseName)
	if hasQuery && query != "" {
		databaseURL = fmt.Sprintf("%s?%s", databaseURL, query)
	}

	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "&"
		if !strings.Contains(databaseURL, "?") {
			separator = "?"
		}
		databaseURL = fmt.Sprintf("%s%ssslmode=disable", databaseURL, separator)
	}

	return databaseURL
}
