// Command seed registers the accounts listed in a YAML file. Accounts that
// already exist are skipped, so the command can be re-run safely.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/pkg/util"
)

type account struct {
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	FullName string      `yaml:"full_name"`
	Role     domain.Role `yaml:"role"`
}

type seedFile struct {
	Accounts []account `yaml:"accounts"`
}

func main() {
	file := pflag.StringP("file", "f", "configs/seed.yaml", "YAML file listing accounts to create")
	dryRun := pflag.Bool("dry-run", false, "validate the file and print the accounts without writing")
	pflag.Parse()

	if err := run(*file, *dryRun); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

func run(path string, dryRun bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	accounts, err := loadAccounts(f)
	if err != nil {
		return err
	}
	if dryRun {
		for _, a := range accounts {
			fmt.Printf("%s\t%s\t%s\n", a.Email, a.Role, a.FullName)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.Driver != config.StoreDriverPostgres {
		return fmt.Errorf("seeding requires STORE_DRIVER=%s", config.StoreDriverPostgres)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	authService := service.NewAuthService(service.AuthDependencies{
		Store:                  repository.NewPostgresStore(pg.Pool),
		Hasher:                 auth.NewPasswordHasher(),
		Tokens:                 auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		Revocations:            auth.NewMemoryRevocationList(nil),
		AllowAdminRegistration: true,
		Logger:                 logger,
	})

	created, skipped, err := seedAccounts(ctx, authService, accounts)
	if err != nil {
		return err
	}
	logger.Info("seed complete", zap.Int("created", created), zap.Int("skipped", skipped))
	return nil
}

type registrar interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.User, error)
}

func seedAccounts(ctx context.Context, r registrar, accounts []account) (created, skipped int, err error) {
	for _, a := range accounts {
		_, err := r.Register(ctx, service.RegisterInput{
			Email:    a.Email,
			Password: a.Password,
			FullName: a.FullName,
			Role:     a.Role,
		})
		var domainErr *util.DomainError
		switch {
		case err == nil:
			created++
		case errors.As(err, &domainErr) && domainErr.Code == util.CodeConflict:
			skipped++
		default:
			return created, skipped, fmt.Errorf("register %s: %w", a.Email, err)
		}
	}
	return created, skipped, nil
}

func loadAccounts(r io.Reader) ([]account, error) {
	var file seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Accounts))
	for i, a := range file.Accounts {
		if a.Email == "" || a.Password == "" {
			return nil, fmt.Errorf("account %d: email and password are required", i)
		}
		if a.Role == "" {
			file.Accounts[i].Role = domain.RoleStudent
		} else if !a.Role.Valid() {
			return nil, fmt.Errorf("account %s: unknown role %q", a.Email, a.Role)
		}
		key := strings.ToLower(strings.TrimSpace(a.Email))
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("account %s listed twice", a.Email)
		}
		seen[key] = struct{}{}
	}
	return file.Accounts, nil
}
