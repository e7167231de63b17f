package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/cppla/imghost/config"
	"github.com/cppla/imghost/routes"
	"github.com/cppla/imghost/storage"
	"github.com/cppla/imghost/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Initialize logger early
	log, err := utils.InitLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := storage.NewOS(cfg.ImagesRoot)
	if err != nil {
		log.Fatal("failed to open image store", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := routes.SetupRouter(cfg, store, log)

	// Sweep staging files left behind by crashes or failed rollbacks
	utils.StartUploadCleaner(ctx, store, cfg.StagingTTL()/2, cfg.StagingTTL(), log)

	log.Info("starting server",
		zap.String("port", cfg.AppPort),
		zap.String("images_root", cfg.ImagesRoot))
	if err := utils.GraceServer(ctx, ":"+cfg.AppPort, r, cfg.ShutdownTimeout(), log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}
