/*
Copyright © 2025 juridia
*/
package main

import (
	"github.com/joho/godotenv"
	"github.com/juridia/legal-assistant-be/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	// Secrets (OPENAI_API_KEY, WEAVIATE_APIKEY, MONGODB_URI, JWT secrets) come
	// from the environment; a .env file is optional in development.
	godotenv.Load()
}
