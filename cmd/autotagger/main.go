// Copyright 2026 StoryStack
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/kirillpolevoy/storystack-sub001"
	"github.com/kirillpolevoy/storystack-sub001/classify"
	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/tagging"
)

func main() {
	app := &cli.App{
		Name:  "autotagger",
		Usage: "Automatic tag assignment for newly ingested photos",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the auto-tagging daemon",
				Action: runCommand,
				Flags: append(serviceFlags(),
					&cli.IntFlag{
						Name:  "bulk-threshold",
						Usage: "Cohort size at which bulk classification is used",
						Value: 20,
					},
					&cli.DurationFlag{
						Name:  "quiet-period",
						Usage: "Base settle delay before a cohort is flushed",
						Value: 2 * time.Second,
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "Interval between bulk job poll cycles",
						Value: 30 * time.Second,
					},
					&cli.DurationFlag{
						Name:  "staleness-window",
						Usage: "Maximum age before an unresolved bulk job is failed",
						Value: 1 * time.Hour,
					},
					&cli.DurationFlag{
						Name:  "scan-interval",
						Usage: "Interval between store scans for stranded items (0 disables)",
						Value: 5 * time.Minute,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size (0 uses the CPU-based default)",
					},
				),
			},
			{
				Name:      "retag",
				Usage:     "Force previously tagged items back through the pipeline",
				ArgsUsage: "ITEM_ID [ITEM_ID...]",
				Action:    retagCommand,
				Flags: append(serviceFlags(),
					&cli.DurationFlag{
						Name:  "wait-timeout",
						Usage: "How long to wait for the retagged items to resolve",
						Value: 5 * time.Minute,
					},
				),
			},
			{
				Name:      "ingest",
				Usage:     "Register image references as items awaiting tagging",
				ArgsUsage: "TENANT_ID IMAGE_REF [IMAGE_REF...]",
				Action:    ingestCommand,
				Flags:     dbFlags(),
			},
			{
				Name:      "set-vocabulary",
				Usage:     "Replace a tenant's enabled tag vocabulary",
				ArgsUsage: "TENANT_ID [LABEL...]",
				Action:    setVocabularyCommand,
				Flags:     dbFlags(),
			},
			{
				Name:      "status",
				Usage:     "Show item counts per tag status for a tenant",
				ArgsUsage: "TENANT_ID",
				Action:    statusCommand,
				Flags:     dbFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
	}
}

func serviceFlags() []cli.Flag {
	return append(dbFlags(),
		&cli.StringFlag{
			Name:  "classifier-host",
			Usage: "Classification service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "classifier-model",
			Usage: "Vision model used for classification",
			Value: "qwen2.5-vl:7b",
		},
		&cli.StringFlag{
			Name:  "classifier-token",
			Usage: "API token for the classification service",
			Value: "none",
		},
		&cli.StringFlag{
			Name:  "image-base-url",
			Usage: "Base URL prepended to relative image references",
		},
	)
}

func openService(c *cli.Context) (*storystack.Service, error) {
	classifyConfig := classify.DefaultConfig(
		classify.WithHost(c.String("classifier-host")),
		classify.WithModel(c.String("classifier-model")),
		classify.WithToken(c.String("classifier-token")),
		classify.WithImageBaseURL(c.String("image-base-url")),
	)
	if err := classifyConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier configuration: %w", err)
	}
	return storystack.NewService(c.String("db"), storystack.WithClassifyConfig(classifyConfig))
}

func taggingConfig(c *cli.Context) (*tagging.Config, error) {
	cfg := tagging.DefaultConfig()
	cfg.BulkThreshold = c.Int("bulk-threshold")
	cfg.QuietPeriodBase = c.Duration("quiet-period")
	cfg.PollInterval = c.Duration("poll-interval")
	cfg.StalenessWindow = c.Duration("staleness-window")
	cfg.ScanInterval = c.Duration("scan-interval")
	if size := c.Int("pool-size"); size > 0 {
		cfg.PoolSize = size
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tagging configuration: %w", err)
	}
	return cfg, nil
}

func runCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	cfg, err := taggingConfig(c)
	if err != nil {
		return err
	}

	orch, err := svc.NewOrchestrator(tagging.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch.Start(ctx)
	slog.Info("auto-tagger running", "db", c.String("db"))
	<-ctx.Done()

	slog.Info("shutting down")
	orch.Release()
	return nil
}

func retagCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one item ID is required")
	}
	ids := make([]core.ItemID, c.NArg())
	for i, arg := range c.Args().Slice() {
		ids[i] = core.ItemID(arg)
	}

	svc, err := openService(c)
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	orch, err := svc.NewOrchestrator()
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orch.Release()

	ctx := context.Background()
	// Large retag batches take the bulk path, so the poller must be running.
	orch.Start(ctx)

	reset, err := orch.Retag(ctx, ids)
	if err != nil {
		return fmt.Errorf("retag failed: %w", err)
	}
	orch.Flush()
	fmt.Fprintf(os.Stderr, "Reset %d of %d items, waiting for resolution...\n", len(reset), len(ids))

	deadline := time.Now().Add(c.Duration("wait-timeout"))
	for {
		unresolved := 0
		for _, id := range reset {
			item, err := svc.ItemRepository().GetItem(ctx, id)
			if err != nil || !item.Status.Terminal() {
				unresolved++
			}
		}
		if unresolved == 0 {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%d items still unresolved after %s", unresolved, c.Duration("wait-timeout"))
		}
		time.Sleep(200 * time.Millisecond)
	}

	for _, id := range reset {
		item, err := svc.ItemRepository().GetItem(ctx, id)
		if err != nil {
			continue
		}
		fmt.Printf("%s\t%s\t%s\n", item.Id, item.Status, strings.Join(item.Tags, ","))
	}
	return nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("tenant ID and at least one image reference are required")
	}
	tenant := core.TenantID(c.Args().First())
	refs := c.Args().Slice()[1:]

	svc, err := storystack.NewService(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	ctx := context.Background()
	for _, ref := range refs {
		id := core.ItemID(uuid.NewString())
		err := svc.ItemRepository().PutItem(ctx, &core.Item{
			Id:       id,
			TenantId: tenant,
			ImageRef: ref,
			Status:   core.TagStatusUntagged,
		})
		if err != nil {
			return fmt.Errorf("failed to store item for %s: %w", ref, err)
		}
		fmt.Printf("%s\t%s\n", id, ref)
	}
	fmt.Fprintf(os.Stderr, "Ingested %d items; a running daemon picks them up on its next scan\n", len(refs))
	return nil
}

func setVocabularyCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("tenant ID is required")
	}
	tenant := core.TenantID(c.Args().First())
	labels := c.Args().Slice()[1:]

	svc, err := storystack.NewService(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	err = svc.VocabularyRepository().PutVocabulary(context.Background(), &core.Vocabulary{
		TenantId: tenant,
		Labels:   labels,
	})
	if err != nil {
		return fmt.Errorf("failed to store vocabulary: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Vocabulary for %s set to %d labels\n", tenant, len(labels))
	return nil
}

func statusCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one tenant ID is required")
	}
	tenant := core.TenantID(c.Args().First())

	svc, err := storystack.NewService(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	ctx := context.Background()
	statuses := []core.TagStatus{
		core.TagStatusUntagged,
		core.TagStatusPending,
		core.TagStatusCompleted,
		core.TagStatusFailed,
	}
	for _, status := range statuses {
		items, err := svc.ItemRepository().ListItemsByStatus(ctx, tenant, status, 0)
		if err != nil {
			return fmt.Errorf("failed to list %s items: %w", status, err)
		}
		fmt.Printf("%-10s %d\n", status, len(items))
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
