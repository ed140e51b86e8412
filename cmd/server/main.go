// Command server runs the persons-of-interest registry API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	actorhandler "reestr/internal/actor/handler"
	actorservice "reestr/internal/actor/service"
	actorstore "reestr/internal/actor/store"
	"reestr/internal/audit"
	"reestr/internal/bootstrap"
	httpapi "reestr/internal/http"
	personhandler "reestr/internal/person/handler"
	personservice "reestr/internal/person/service"
	personstore "reestr/internal/person/store"
	"reestr/internal/platform/config"
	"reestr/internal/platform/httpserver"
	"reestr/internal/platform/logger"
	"reestr/internal/platform/metrics"
	"reestr/internal/platform/middleware"
	"reestr/internal/platform/postgres"
	platformredis "reestr/internal/platform/redis"
	refdatahandler "reestr/internal/refdata/handler"
	refdataservice "reestr/internal/refdata/service"
	refdatastore "reestr/internal/refdata/store"
	"reestr/internal/token"
	"reestr/internal/token/revocation"
)

type stores struct {
	actors  actorservice.ActorStore
	persons personservice.PersonStore
	refdata refdataservice.Store
	audit   audit.Store
}

// revocationList is both the revoker used by logout and the checker used by
// the auth middleware.
type revocationList interface {
	actorservice.Revoker
	middleware.RevocationChecker
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		log.Error("store initialization failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis initialization failed", "error", err)
		os.Exit(1)
	}
	var revoker revocationList
	if redisClient != nil {
		defer redisClient.Close()
		revoker = revocation.NewRedisTRL(redisClient.Client)
		log.Info("token revocation list backed by redis")
	} else {
		revoker = revocation.NewMemoryTRL()
		log.Info("token revocation list in memory")
	}

	publisher, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic, log)
	if err != nil {
		log.Error("kafka initialization failed", "error", err)
		os.Exit(1)
	}
	var auditPublisher audit.Publisher
	if publisher != nil {
		auditPublisher = publisher
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := publisher.Close(closeCtx); err != nil {
				log.Error("audit publisher close failed", "error", err)
			}
		}()
		log.Info("audit events published to kafka", "topic", cfg.AuditTopic)
	}
	auditor := audit.NewService(st.audit, auditPublisher, log)

	m := metrics.New()
	tokens := token.New(cfg.JWTSigningKey, cfg.TokenTTL)

	actorSvc := actorservice.New(st.actors, st.refdata, tokens, revoker, auditor, m, log)
	personSvc := personservice.New(st.persons, actorSvc, st.refdata, auditor, m, log)
	refdataSvc := refdataservice.New(st.refdata, actorSvc, auditor, m, log)

	if cfg.SeedBootstrap {
		if err := bootstrap.Seed(ctx, st.actors, st.refdata, log); err != nil {
			log.Error("bootstrap seeding failed", "error", err)
			os.Exit(1)
		}
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Actors:    actorhandler.New(actorSvc, log),
		Persons:   personhandler.New(personSvc, log),
		RefData:   refdatahandler.New(refdataSvc, log),
		Validator: tokens,
		Revoked:   revoker,
		Logger:    log,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// buildStores selects PostgreSQL stores when a DSN is configured and the
// in-memory set otherwise.
func buildStores(ctx context.Context, cfg config.Config) (stores, func(), error) {
	if cfg.PostgresDSN == "" {
		return stores{
			actors:  actorstore.NewInMemory(),
			persons: personstore.NewInMemory(),
			refdata: refdatastore.NewInMemory(),
			audit:   audit.NewInMemoryStore(),
		}, func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return stores{}, nil, err
	}
	return stores{
		actors:  actorstore.NewPostgres(db),
		persons: personstore.NewPostgres(db),
		refdata: refdatastore.NewPostgres(db),
		audit:   audit.NewPostgresStore(db),
	}, func() { _ = db.Close() }, nil
}
