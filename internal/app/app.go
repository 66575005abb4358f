package app

import (
	"context"
	"errors"
	"net/http"

	"gitlab.com/nevasik7/alerting/logger"
)

type HTTPServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

type App struct {
	log     logger.Logger
	httpSrv HTTPServer
}

func NewApp(lg logger.Logger, httpSrv HTTPServer) *App {
	return &App{log: lg, httpSrv: httpSrv}
}

func (a *App) Start() error {
	a.log.Debugf("App started begin...")

	go func() {
		if err := a.httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Panicf("Start HTTP server is error=%v", err)
		}
	}()

	a.log.Infof("App started")
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.log.Debugf("App stopped begin...")

	if err := a.httpSrv.Shutdown(ctx); err != nil {
		return err
	}

	a.log.Infof("App stopped")
	return nil
}
