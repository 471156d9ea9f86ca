// Package app assembles the adapters and services from configuration. Both
// binaries start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/csg33k/jpk-vat/internal/adapters/authority"
	"github.com/csg33k/jpk-vat/internal/adapters/signing"
	sqliteadapter "github.com/csg33k/jpk-vat/internal/adapters/sqlite"
	"github.com/csg33k/jpk-vat/internal/config"
	"github.com/csg33k/jpk-vat/internal/domain"
	"github.com/csg33k/jpk-vat/internal/handlers"
	"github.com/csg33k/jpk-vat/internal/logger"
	"github.com/csg33k/jpk-vat/internal/service"
	"github.com/csg33k/jpk-vat/internal/submission"
)

type App struct {
	Config       *config.Config
	Tenant       domain.TenantID
	Repo         *sqliteadapter.Repository
	Orchestrator *submission.Orchestrator
	Service      *service.DeclarationService
	Verifier     *authority.WebhookVerifier
}

// Open connects the database, applies pending migrations and wires the
// services. The authority client is only built when a base URL is set;
// commands that talk to the authority check cfg.RequireAuthority first.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.WithComponent("app")

	repo, err := sqliteadapter.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applied, err := repo.Migrate(ctx)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if len(applied) > 0 {
		log.Info().Strs("versions", applied).Msg("migrations applied")
	}

	deps := submission.Deps{
		Submissions: repo,
		Documents:   repo,
		Store:       repo,
		Proofs:      authority.ProofParser{},
		Clock:       submission.SystemClock{},
	}
	if cfg.AuthorityBaseURL != "" {
		client, err := authority.New(authority.Config{
			BaseURL:    cfg.AuthorityBaseURL,
			Token:      cfg.AuthorityToken,
			HTTPClient: &http.Client{Timeout: cfg.CallTimeout + 5*time.Second},
		}, logger.WithComponent("authority"))
		if err != nil {
			repo.Close()
			return nil, err
		}
		deps.Authority = client
	}
	if cfg.SigningCertPath != "" {
		signer, err := signing.LoadPEM(cfg.SigningCertPath, cfg.SigningKeyPath)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("load signing certificate: %w", err)
		}
		deps.Signer = signer
	}

	a := &App{Config: cfg, Tenant: domain.TenantID(cfg.Tenant), Repo: repo}
	a.Orchestrator = submission.New(deps, PolicyFrom(cfg), logger.WithTenant("orchestrator", cfg.Tenant))
	a.Service = service.New(service.Deps{
		Tx:            repo,
		Transactions:  repo,
		Settlements:   repo,
		CarryForwards: repo,
		Clients:       repo,
		Documents:     repo,
		Store:         repo,
		Submissions:   repo,
		Proofs:        deps.Proofs,
		Orchestrator:  a.Orchestrator,
		Clock:         deps.Clock,
	}, service.Options{SchemaVersion: cfg.SchemaVersion, SystemName: cfg.SystemName},
		logger.WithTenant("declarations", cfg.Tenant))

	if cfg.WebhookSecret != "" {
		if a.Verifier, err = authority.NewWebhookVerifier(cfg.WebhookSecret); err != nil {
			repo.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *App) Close() error { return a.Repo.Close() }

// PolicyFrom maps the schedule settings onto the orchestrator policy.
func PolicyFrom(cfg *config.Config) submission.Policy {
	return submission.Policy{
		Schedule:            cfg.RetrySchedule,
		MaxAttempts:         cfg.MaxAttempts,
		CallTimeout:         cfg.CallTimeout,
		PollInterval:        cfg.PollInterval,
		WebhookPollInterval: cfg.WebhookPollInterval,
		MaxPollDuration:     cfg.MaxPollDuration,
		TickInterval:        cfg.RunTick,
	}
}

// Serve runs the HTTP server and the background orchestrator until ctx is
// cancelled, then shuts both down.
func (a *App) Serve(ctx context.Context) error {
	if err := a.Config.RequireAuthority(); err != nil {
		return err
	}
	log := logger.WithComponent("server")
	srv := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           handlers.New(a.Service, a.Verifier, a.Tenant, logger.WithComponent("http")).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", "http://localhost:"+a.Config.Port).Str("db", a.Config.DBPath).Msg("JPK_V7 server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := a.Orchestrator.Run(ctx, a.Tenant)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
