package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luoxiv/enervision/pkg/configs"
	ctxPkg "github.com/luoxiv/enervision/pkg/context"
	"github.com/luoxiv/enervision/pkg/internal/storage"
	"github.com/luoxiv/enervision/pkg/internal/worker"
	"github.com/luoxiv/enervision/pkg/log"
)

var (
	workerCmd = &cobra.Command{
		Use:   "worker",
		Short: "start the out-of-band scene llm worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return fmt.Errorf("init config: %w", err)
			}

			log.Init()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			manager, err := storage.Init(ctx)
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}
			defer func() {
				if cerr := manager.Close(); cerr != nil {
					log.Logger().Error().Err(cerr).Msg("storage close failed")
				}
			}()

			ctx = ctxPkg.WithStorageManager(ctx, manager)

			w, err := worker.New(ctx)
			if err != nil {
				return fmt.Errorf("init worker: %w", err)
			}

			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			return nil
		},
	}
)

// registerWorkerCommands 注册场景解析 worker 命令.
func registerWorkerCommands() {
	rootCmd.AddCommand(workerCmd)
}
