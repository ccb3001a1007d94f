package config_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/okian/crewrate/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Categories, convey.ShouldBeEmpty)
				convey.So(cfg.Path, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CREWRATE_ADDR", ":8080")
			_ = os.Setenv("CREWRATE_SCORE_MAX", "10")
			_ = os.Setenv("CREWRATE_THRESHOLDS__AT_RISK_MAX", "2")
			_ = os.Setenv("CREWRATE_DATABASE__DSN", "file::memory:")
			_ = os.Setenv("CREWRATE_CATEGORIES", "Safety, Speed")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ScoreMax, convey.ShouldEqual, 10)
				convey.So(cfg.Thresholds.AtRiskMax, convey.ShouldEqual, 2)
				convey.So(cfg.Thresholds.TopPerformerMin, convey.ShouldEqual, 4.2)
				convey.So(cfg.Database.DSN, convey.ShouldEqual, "file::memory:")
				convey.So(cfg.Database.Driver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.Categories, convey.ShouldResemble, []string{"Safety", "Speed"})
			})
		})

		convey.Convey("When metrics settings come from the environment", func() {
			_ = os.Setenv("CREWRATE_METRICS__PREFIX", "crew_")
			_ = os.Setenv("CREWRATE_METRICS__REFRESH_INTERVAL", "5s")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the metrics section picks them up", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Metrics.Prefix, convey.ShouldEqual, "crew_")
				convey.So(cfg.Metrics.RefreshInterval, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.Metrics.Namespace, convey.ShouldEqual, "crewrate")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
log_format: json
database:
  driver: mysql
  dsn: "crew:secret@tcp(db:3306)/crewrate?parseTime=true"
categories: [Punctuality, Skill, Teamwork, Safety]
thresholds:
  top_performer_min: 4.5
score_min: 1
score_max: 5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CREWRATE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.Database.Driver, convey.ShouldEqual, config.DriverMySQL)
				convey.So(cfg.Database.MaxOpenConns, convey.ShouldEqual, 10)
				convey.So(cfg.Categories, convey.ShouldHaveLength, 4)
				convey.So(cfg.Thresholds.TopPerformerMin, convey.ShouldEqual, 4.5)
				convey.So(cfg.Thresholds.AtRiskMax, convey.ShouldEqual, 2.5)
				convey.So(cfg.Path, convey.ShouldEqual, tmpFile)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nscore_max: 10\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CREWRATE_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.LoadFrom(ctx, tmpFile)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080") // env
				convey.So(cfg.ScoreMax, convey.ShouldEqual, 10)  // file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			cfg, err := config.LoadFrom(ctx, tmpFile)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CREWRATE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("CREWRATE_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When thresholds from env overlap", func() {
			_ = os.Setenv("CREWRATE_THRESHOLDS__AT_RISK_MAX", "4.8")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CREWRATE_SCORE_MAX", "lots")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"CREWRATE_CONFIG",
		"CREWRATE_ADDR",
		"CREWRATE_SCORE_MAX",
		"CREWRATE_THRESHOLDS__AT_RISK_MAX",
		"CREWRATE_DATABASE__DSN",
		"CREWRATE_CATEGORIES",
		"CREWRATE_METRICS__PREFIX",
		"CREWRATE_METRICS__REFRESH_INTERVAL",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "crewrate-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
