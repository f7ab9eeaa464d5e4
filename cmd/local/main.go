package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"proxyscout/internal/app"
	"proxyscout/internal/core/envproxy"
	"proxyscout/internal/shared/config"
	"proxyscout/internal/shared/logger"
	"proxyscout/internal/shared/types"
)

func main() {
	configDir := flag.String("configdir", "configs", "Path to config directory")
	once := flag.Bool("once", false, "Detect the system proxy once, print it as JSON and exit")
	target := flag.String("target", "", "Destination URL to detect for (with -once); defaults to the probe URL")
	flag.Parse()

	iniPath := filepath.Join(*configDir, "proxyscout.ini")
	settingsPath := filepath.Join(*configDir, "settings.json")

	// 1. 加载 .ini 行为配置
	cfg := types.NewDefaultConfig()
	if err := config.LoadIni(cfg, iniPath); err != nil {
		if !os.IsNotExist(err) {
			// Use standard fmt before logger is initialized.
			fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", iniPath, err)
			os.Exit(1)
		}
	}

	// 1.1 初始化日志系统
	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	envCfg := envproxy.FromEnvironment().Config()
	logger.Debug().
		Str("http_proxy", envCfg.HTTPProxy).
		Str("https_proxy", envCfg.HTTPSProxy).
		Str("no_proxy", envCfg.NoProxy).
		Msg("Proxy environment variables.")

	if *once {
		os.Exit(runOnce(cfg, *target))
	}

	// 2. 创建并运行服务器
	appServer, err := app.NewForPC(cfg, settingsPath)
	if err != nil {
		logger.Fatal().Err(err).Msgf("Failed to load settings file '%s'", settingsPath)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received.")
		appServer.Stop()
	}()

	appServer.Run()
}

func runOnce(cfg *types.Config, target string) int {
	appServer, err := app.NewInMemory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	proxy, detErr := appServer.DetectProxy(context.Background(), target)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(types.NewProxyUpdate(proxy, detErr)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if detErr != nil {
		return 1
	}
	return 0
}
