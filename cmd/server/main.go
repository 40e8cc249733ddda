package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/lumenbooth/firefly-booth/internal/config"
	"github.com/lumenbooth/firefly-booth/internal/database"
	"github.com/lumenbooth/firefly-booth/internal/handler"
	"github.com/lumenbooth/firefly-booth/internal/middleware"
	"github.com/lumenbooth/firefly-booth/internal/model"
	"github.com/lumenbooth/firefly-booth/internal/presence"
	"github.com/lumenbooth/firefly-booth/internal/queue"
	"github.com/lumenbooth/firefly-booth/internal/repository"
	"github.com/lumenbooth/firefly-booth/internal/router"
	"github.com/lumenbooth/firefly-booth/internal/service"
)

func main() {
	cfg := config.Load()
	pcfg, err := config.LoadPresenceConfig()
	if err != nil {
		log.Fatal(err)
	}
	lcfg, err := config.LoadLedgerConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := openLedger(cfg, lcfg)
	if err != nil {
		log.Fatalf("ledger: %v", err)
	}
	defer db.Close()
	if err := database.ApplyMigrations(ctx, db, dialect); err != nil {
		log.Fatalf("ledger: migrate: %v", err)
	}

	reader := repository.NewLedgerReader(db)
	b := presence.NewBroadcaster(reader, presence.Options{
		Debounce:         pcfg.Debounce,
		Heartbeat:        pcfg.Heartbeat,
		SubscriberBuffer: pcfg.SubscriberBuffer,
	})
	sections := repository.NewSectionRepo(db, b)
	moments := repository.NewMomentRepo(db)
	checkins := repository.NewCheckinRepo(db, b)
	if err := ensureSection(ctx, sections); err != nil {
		log.Fatalf("ledger: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis: unavailable, rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	var pub handler.ReleasePublisher
	if cfg.AMQPURL != "" {
		pub = service.NewPublisher(cfg.AMQPURL)
	}

	e := echo.New()
	e.HideBanner = true
	// Streams hang off the signal context so Shutdown does not wait on them.
	e.Server.BaseContext = func(net.Listener) context.Context { return ctx }
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg))
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	sh := handler.NewSectionHandler(sections, cache)
	router.RegisterPublic(e, sh, handler.NewPresenceHandler(b, sections, reader), cache.Middleware())
	router.RegisterStaff(e, handler.NewCheckinHandler(checkins, moments, pub), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterAdmin(e, sh, cfg.JWTSecret)

	b.Start(ctx)
	defer b.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s, ledger=%s)", addr, cfg.Env, dialect)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if cfg.AMQPURL != "" {
		g.Go(func() error {
			err := queue.StartLedgerConsumer(gctx, cfg.AMQPURL, b)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	if dialect == database.DialectSQLite && pcfg.WatchFile {
		g.Go(func() error { return presence.WatchFile(gctx, lcfg.SQLitePath, b) })
	}

	if err := g.Wait(); err != nil {
		log.Printf("server: %v", err)
		stop()
		b.Stop()
		os.Exit(1)
	}
}

func openLedger(cfg config.Config, lcfg config.LedgerConfig) (*sql.DB, database.Dialect, error) {
	if lcfg.Driver == string(database.DialectSQLite) {
		if err := os.MkdirAll(filepath.Dir(lcfg.SQLitePath), 0o755); err != nil {
			return nil, "", err
		}
		db, err := database.OpenSQLite(lcfg.SQLitePath)
		return db, database.DialectSQLite, err
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	return db, database.DialectMySQL, err
}

// ensureSection seeds a default section on an empty ledger so there is
// always at least one to stream.
func ensureSection(ctx context.Context, sections *repository.SectionRepo) error {
	list, err := sections.List(ctx)
	if err != nil {
		return err
	}
	if len(list) > 0 {
		return nil
	}
	log.Printf("ledger: no sections, creating default")
	return sections.Create(ctx, &model.Section{Name: "Main", DisplayOrder: 1})
}
