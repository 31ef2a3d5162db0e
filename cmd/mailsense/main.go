package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/mailsense/internal/profile"
	"github.com/hrygo/mailsense/plugin/ai"
	"github.com/hrygo/mailsense/plugin/milvus"
	"github.com/hrygo/mailsense/plugin/segment"
	"github.com/hrygo/mailsense/server"
	"github.com/hrygo/mailsense/server/retrieval"
	"github.com/hrygo/mailsense/store"
	"github.com/hrygo/mailsense/store/db"
)

const version = "0.1.0"

var (
	instanceProfile *profile.Profile

	rootCmd = &cobra.Command{
		Use:   "mailsense",
		Short: "Semantic retrieval service over ingested emails",
		Run: func(_ *cobra.Command, _ []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx); err != nil {
				slog.Error("failed to run server", slog.String("error", err.Error()))
				os.Exit(1)
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8080, "port of server")
	rootCmd.PersistentFlags().String("data", ".", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "record store driver")
	rootCmd.PersistentFlags().String("dsn", "", "record store connection string")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("mailsense")
	viper.AutomaticEnv()
}

func run(ctx context.Context) error {
	instanceProfile = &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version,
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return fmt.Errorf("failed to create db driver: %w", err)
	}
	storeInstance := store.New(dbDriver, instanceProfile)

	embeddingConfig := ai.NewEmbeddingConfigFromProfile(instanceProfile)
	if err := embeddingConfig.Validate(); err != nil {
		return fmt.Errorf("invalid embedding config: %w", err)
	}
	embeddingService, err := ai.NewEmbeddingService(embeddingConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedding service: %w", err)
	}

	segmenter, err := segment.NewSegmenter()
	if err != nil {
		return fmt.Errorf("failed to create segmenter: %w", err)
	}

	index, err := milvus.NewService(ctx, milvus.Config{
		Address:    instanceProfile.MilvusAddress(),
		Username:   instanceProfile.MilvusUser,
		Password:   instanceProfile.MilvusPassword,
		Database:   instanceProfile.MilvusDatabase,
		Collection: instanceProfile.MilvusCollection,
		Dimensions: instanceProfile.EmbeddingDimensions,
	}, embeddingService)
	if err != nil {
		return fmt.Errorf("failed to connect to vector index: %w", err)
	}

	// Schema setup finishes before the listener opens, so it cannot race
	// concurrent inserts or searches.
	if err := index.CreateOrGetCollection(ctx, instanceProfile.MilvusReset); err != nil {
		return fmt.Errorf("failed to set up collection: %w", err)
	}

	retrievalService := retrieval.NewService(storeInstance, index, segmenter)
	s := server.NewServer(instanceProfile, storeInstance, index, retrievalService)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.Shutdown(context.Background())
		return nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
