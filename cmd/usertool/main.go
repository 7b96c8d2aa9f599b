// Command usertool performs account administration that has no web surface.
//
//	usertool set-role -u alice -r admin
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"profile-portal/internal/auth"
	"profile-portal/internal/config"
	"profile-portal/internal/repository/sqlite"
	"profile-portal/internal/service"
	"profile-portal/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 || os.Args[1] != "set-role" {
		fmt.Fprintln(os.Stderr, "usage: usertool set-role -u <username> -r <user|admin> [--config file]")
		os.Exit(2)
	}

	flags := pflag.NewFlagSet("set-role", pflag.ExitOnError)
	username := flags.StringP("username", "u", "", "account to change")
	role := flags.StringP("role", "r", "", "new role (user or admin)")
	configFile := flags.String("config", "", "path to a config file")
	_ = flags.Parse(os.Args[2:])

	if *username == "" || *role == "" {
		flags.Usage()
		os.Exit(2)
	}

	var cfgArgs []string
	if *configFile != "" {
		cfgArgs = append(cfgArgs, "--config", *configFile)
	}
	cfg, err := config.Load(cfgArgs)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := sqlite.Migrate(ctx, db); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	pictureStore, err := storage.FromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	hasher, err := auth.NewPasswords(cfg.Auth.Hasher, cfg.Auth.PBKDF2Iterations)
	if err != nil {
		logger.Fatalf("setup password hasher: %v", err)
	}

	users := service.NewUserService(sqlite.NewUserRepository(db), pictureStore, hasher, logger)
	if err := users.SetRole(ctx, *username, *role); err != nil {
		logger.Fatalf("set role: %v", err)
	}
	logger.Infof("%s is now %s", *username, *role)
}
