package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	c "lautenbacher.net/gomovie/config"
	"lautenbacher.net/gomovie/logging"
	"lautenbacher.net/gomovie/media"
	pl "lautenbacher.net/gomovie/platform"
	"lautenbacher.net/gomovie/player"
)

type App struct {
	ossignal    chan os.Signal
	cfile       string
	realHW      bool
	newPlatform func(conf *c.Config) pl.Platform
}

func NewApp(ossignal chan os.Signal, cfile string, realHW bool) *App {
	app := &App{
		ossignal: ossignal,
		cfile:    cfile,
		realHW:   realHW,
	}
	app.newPlatform = func(conf *c.Config) pl.Platform {
		if conf.RealHW {
			return pl.NewRaspberryPiPlatform(conf)
		}
		return pl.NewTUIPlatform(conf, app.ossignal)
	}
	return app
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfile string
		realp bool
	)
	cmd := &cobra.Command{
		Use:   "gomovie",
		Short: "Plays raw RGB565 movies from a directory on a small SPI panel",
		Long: `gomovie streams raw RGB565 frame dumps from the media directory to the
panel, looping the current movie until the button is pressed.
Without --real the panel and the button are simulated in the terminal.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ossignal := make(chan os.Signal, 1)
			signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer signal.Stop(ossignal)
			return NewApp(ossignal, cfile, realp).Run()
		},
	}
	cmd.Flags().StringVar(&cfile, "config", c.CONFILE, "config file")
	cmd.Flags().BoolVar(&realp, "real", false, "drive the real Raspberry Pi hardware")
	return cmd
}

// Run plays until interrupted. SIGHUP or a change of the config file
// restarts playback with the re-read configuration. Only the first read
// of the config file is fatal; a broken file on reload keeps the current
// configuration playing.
func (a *App) Run() error {
	conf, err := c.ReadConfig(a.cfile, a.realHW)
	if err != nil {
		return err
	}
	for {
		next, err := a.runOnce(conf)
		if err != nil || next == nil {
			return err
		}
		conf = *next
	}
}

// runOnce plays with conf until a signal ends the run. It returns the
// configuration to restart with, or nil to shut down.
func (a *App) runOnce(conf c.Config) (*c.Config, error) {
	if err := logging.Init(conf.LogConfig(), !conf.RealHW); err != nil {
		logConf := conf.LogConfig()
		logConf.File = ""
		if err := logging.Init(logConf, !conf.RealHW); err != nil {
			return nil, err
		}
		slog.Error("Log file unusable, logging without it", "error", err)
	}
	defer logging.Close()

	platform := a.newPlatform(&conf)
	if err := platform.Start(); err != nil {
		return nil, fmt.Errorf("failed to start platform: %w", err)
	}
	defer platform.Stop()

	for ready := false; !ready; {
		select {
		case <-platform.Ready():
			ready = true
		case sig := <-a.ossignal:
			if next, stop := a.handleSignal(sig); stop {
				return next, nil
			}
		}
	}

	watcher, err := watchConfig(a.cfile, a.ossignal)
	if err != nil {
		slog.Warn("Config hot reload disabled", "error", err)
	} else {
		defer watcher.Close()
	}

	if conf.Web.Addr != "" {
		server := startConfigServer(conf.Web.Addr, a.cfile)
		defer shutdownServer(server)
	}

	var opts []player.Option
	if obs, ok := platform.(player.Observer); ok {
		opts = append(opts, player.WithObserver(obs))
	}
	openVolume := func() (media.Directory, error) {
		return media.OpenVolume(conf.Media.Dir)
	}
	ctl := player.New(&conf, openVolume, platform.Display(), platform.Button(), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- ctl.Run(ctx)
	}()

	for {
		next, stop := a.handleSignal(<-a.ossignal)
		if !stop {
			continue
		}
		cancel()
		<-done
		if next != nil {
			slog.Info("Reloading configuration...")
		} else {
			slog.Info("Shutting down...")
		}
		return next, nil
	}
}

// handleSignal decides whether sig ends the current run. A reload only
// does so when the config file reads back valid; next is nil on shutdown.
func (a *App) handleSignal(sig os.Signal) (next *c.Config, stop bool) {
	slog.Info("Received signal", "signal", sig)
	if sig != syscall.SIGHUP {
		return nil, true
	}
	conf, err := c.ReadConfig(a.cfile, a.realHW)
	if err != nil {
		slog.Error("Config reload failed, keeping the current configuration", "error", err)
		return nil, false
	}
	return &conf, true
}

func startConfigServer(addr, cfile string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/api/config", c.ConfigHandler(cfile))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Config API listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Config API failed", "error", err)
		}
	}()
	return server
}

func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Warn("Config API shutdown", "error", err)
	}
}

// watchConfig sends SIGHUP to reload whenever cfile is written or
// replaced. The directory is watched since editors replace files.
func watchConfig(cfile string, reload chan<- os.Signal) (*fsnotify.Watcher, error) {
	abs, err := filepath.Abs(cfile)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				slog.Info("Config file changed", "file", abs, "op", event.Op.String())
				select {
				case reload <- syscall.SIGHUP:
				default:
					// a signal is already pending
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Config watcher error", "error", err)
			}
		}
	}()
	return watcher, nil
}
