package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"static-file-filter/lib/config"
	"static-file-filter/lib/db/rejects"
	"static-file-filter/lib/firewall"
	"static-file-filter/lib/http"
	"static-file-filter/lib/log"
	"static-file-filter/lib/settings"
)

func main() {
	s, err := settings.Load(os.Args[1:])
	if err != nil {
		log.Fatal("settings:", err.Error())
	}

	log.Init(s.LogLevel, s.LogFormat)

	if s.CheckOnly {
		os.Exit(checkConfig(s))
	}

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger { return log.FxLogger{} }),
		fx.Supply(s),
		fx.Provide(
			loadStore,
			newRejectsLog,
			newFirewall,
			newStatusSource,
			newHandler,
		),
		fx.Invoke(startListener),
	)
	if err := app.Err(); err != nil {
		log.Fatal("startup:", err.Error())
	}

	app.Run()
}

// checkConfig parses and resolves the Filterfile, then prints the result.
func checkConfig(s *settings.Settings) int {
	store, err := loadStore(s)
	if err != nil {
		log.Error(err.Error())
		return 1
	}

	out, err := config.Dump(store)
	if err != nil {
		log.Error(err.Error())
		return 1
	}

	fmt.Print(string(out))
	log.Info("configuration file", s.ConfigFile, "test is successful")

	return 0
}

func loadStore(s *settings.Settings) (*config.Store, error) {
	store, err := config.LoadFile(s.ConfigFile, s.ParseOptions())
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", s.ConfigFile, err)
	}

	return store, nil
}

func newRejectsLog(lc fx.Lifecycle, s *settings.Settings) (*rejects.Log, error) {
	l, err := rejects.NewLog(s.Rejects())
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return l.Close()
		},
	})

	return l, nil
}

func newFirewall(store *config.Store, l *rejects.Log) (*firewall.Firewall, error) {
	return firewall.New(store, l)
}

func newStatusSource(s *settings.Settings, store *config.Store, l *rejects.Log) *http.StatusSource {
	return &http.StatusSource{
		Engine:  s.Engine,
		Store:   store,
		Rejects: l,
	}
}

func newHandler(s *settings.Settings, fw *firewall.Firewall, src *http.StatusSource) (nethttp.Handler, error) {
	return http.NewHandler(s.Engine, fw, src, s.Content())
}

func startListener(lc fx.Lifecycle, shutdowner fx.Shutdowner, s *settings.Settings, handler nethttp.Handler) {
	httpServer := http.CreateHttpServer(s.Addr, handler)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", s.Addr)
			if err != nil {
				return fmt.Errorf("httpServer.Listen: %w", err)
			}

			go func() {
				err := httpServer.Serve(ln)
				if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
					log.Error("httpServer.Serve:", err.Error())
					_ = shutdowner.Shutdown()
				}
			}()

			log.WithFields(log.Fields{
				"addr":   s.Addr,
				"engine": s.Engine,
				"conf":   s.ConfigFile,
			}).Info("static-file-filter listening")

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return httpServer.Shutdown(ctx)
		},
	})
}
