// Package main is a development utility for generating a test API key with its
// bcrypt hash and display prefix pre-computed. It prints the raw key, hash,
// prefix, and a ready-to-run SQL INSERT so developers can quickly seed a usable
// API key in a local database without signing up through the dashboard. Do not
// use generated keys in production — create keys through POST /api/me/api-keys
// so they are tied to a real account.
package main

import (
	"fmt"
	"log"

	"github.com/lagden-dev/ldev-api/internal/auth"
)

func main() {
	fullKey, hash, displayPrefix, err := auth.GenerateAPIKey("ldev_")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("==========================================================")
	fmt.Println("API Key Generated")
	fmt.Println("==========================================================")
	fmt.Printf("\nFull Key: %s\n", fullKey)
	fmt.Printf("\nHash: %s\n", hash)
	fmt.Printf("\nDisplay Prefix: %s\n", displayPrefix)
	fmt.Println("\n==========================================================")
	fmt.Println("SQL Insert:")
	fmt.Println("==========================================================")
	fmt.Printf(`
INSERT INTO api_keys (id, account_id, description, key_hash, key_prefix, roles, uses, created_at)
SELECT gen_random_uuid(), id, 'local dev key', '%s', '%s', '["default"]', 0, now()
FROM accounts WHERE email = 'admin@dev.local';
`, hash, displayPrefix)
	fmt.Println("\n==========================================================")
	fmt.Printf("Request Header: X-API-Key: %s\n", fullKey)
	fmt.Println("==========================================================")
}
