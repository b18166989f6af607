package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func testApp() *cli.App {
	return &cli.App{
		Name: "autotagger",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				ArgsUsage: "TENANT_ID IMAGE_REF [IMAGE_REF...]",
				Action:    ingestCommand,
				Flags:     dbFlags(),
			},
			{
				Name:      "set-vocabulary",
				ArgsUsage: "TENANT_ID [LABEL...]",
				Action:    setVocabularyCommand,
				Flags:     dbFlags(),
			},
			{
				Name:      "status",
				ArgsUsage: "TENANT_ID",
				Action:    statusCommand,
				Flags:     dbFlags(),
			},
		},
	}
}

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	app := testApp()
	err := app.Run([]string{"autotagger", "--log-level", "verbose", "status", "--db", t.TempDir(), "tenant-a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestIngestCommandRequiresArguments(t *testing.T) {
	app := testApp()
	err := app.Run([]string{"autotagger", "ingest", "--db", t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant ID")
}

func TestIngestSetVocabularyAndStatus(t *testing.T) {
	db := t.TempDir()

	err := testApp().Run([]string{"autotagger", "ingest", "--db", db,
		"tenant-a", "s3://photos/beach.jpg", "s3://photos/dog.jpg"})
	require.NoError(t, err)

	err = testApp().Run([]string{"autotagger", "set-vocabulary", "--db", db,
		"tenant-a", "beach", "dog", "sunset"})
	require.NoError(t, err)

	err = testApp().Run([]string{"autotagger", "status", "--db", db, "tenant-a"})
	require.NoError(t, err)
}
