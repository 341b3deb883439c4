// Command gmail-auth runs the one-time Gmail consent flow and stores the
// token the API uses when MAIL_TRANSPORT=gmail.
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/justsurfingit/job-application-tracker/internal/auth"
	"github.com/justsurfingit/job-application-tracker/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using process environment")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if err := auth.AuthorizeGmail(context.Background(), cfg.Mail.CredentialsPath, cfg.Mail.TokenPath, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("Gmail authorization failed: %v", err)
	}
	log.Println("✅ Gmail token saved")
}
