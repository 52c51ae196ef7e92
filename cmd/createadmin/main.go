package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/angelmondragon/askbox-backend/internal/auth"
	"github.com/angelmondragon/askbox-backend/internal/profiles"
	"github.com/angelmondragon/askbox-backend/internal/users"
	"github.com/angelmondragon/askbox-backend/pkg/config"
	"github.com/angelmondragon/askbox-backend/pkg/db"
	"github.com/angelmondragon/askbox-backend/pkg/logger"
	"github.com/angelmondragon/askbox-backend/pkg/migrate"
	"github.com/angelmondragon/askbox-backend/pkg/security"
)

const generatedPasswordLength = 20

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "createadmin"})

	_ = godotenv.Load()

	username := flag.String("username", "", "admin username")
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password (generated when empty)")
	flag.Parse()

	if *username == "" || *email == "" {
		fmt.Fprintln(os.Stderr, "-username and -email are required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "createadmin",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	requireResource(ctx, logg, "migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	generated := false
	if *password == "" {
		*password, err = security.GenerateTempPassword(generatedPasswordLength)
		requireResource(ctx, logg, "password generator", err)
		generated = true
	}

	svc, err := auth.NewAdminRegisterService(auth.RegisterServiceParams{
		TxRunner: dbClient,
		Lookup:   users.NewRepository(dbClient.DB()),
		UserRepoFactory: func(tx *gorm.DB) auth.UserWriter {
			return users.NewRepository(tx)
		},
		ProfileProvisionerFactory: func(tx *gorm.DB) auth.ProfileProvisioner {
			return profiles.NewProvisioner(tx, cfg.Accounts.DefaultAvatar)
		},
		Hasher: security.NewArgon2Hasher(cfg.Password),
		Policy: auth.PolicyFromConfig(cfg.Accounts),
		Logger: logg,
	})
	requireResource(ctx, logg, "admin register service", err)

	user, err := svc.CreatePrivileged(ctx, auth.AdminRegisterRequest{
		Username: *username,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		if fields, ok := auth.Rejections(err); ok {
			for field, rejections := range fields {
				for _, r := range rejections {
					fmt.Fprintf(os.Stderr, "%s: %s (%s)\n", field, r.Message, r.Reason)
				}
			}
			os.Exit(1)
		}
		requireResource(ctx, logg, "create admin", err)
	}

	fmt.Printf("created admin %s (%s)\n", user.Username, user.ID)
	if generated {
		fmt.Printf("generated password: %s\n", *password)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
