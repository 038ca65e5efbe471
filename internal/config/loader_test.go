package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/ratings/internal/config"
)

func TestConfigLoaderDefaults(t *testing.T) {
	convey.Convey("Given no config file and no environment", t, func() {
		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
		convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
		convey.So(cfg.DatabaseURL, convey.ShouldBeEmpty)
	})
}

func TestConfigLoaderEnv(t *testing.T) {
	t.Setenv("RATINGS_ADDR", ":8080")
	t.Setenv("RATINGS_QUEUE_SIZE", "500")
	t.Setenv("RATINGS_WORKER_COUNT", "16")
	t.Setenv("RATINGS_DEDUPE_TTL", "1h")
	t.Setenv("RATINGS_GLICKO_TAU", "0.3")
	t.Setenv("RATINGS_GLICKO_TEAM_MODE", "merged")
	t.Setenv("RATINGS_GLICKO_DECAY_PERIOD", "168h")
	t.Setenv("RATINGS_ELO_RAINBOW_K", "12")

	convey.Convey("Given environment overrides", t, func() {
		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
		convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
		convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
		convey.So(cfg.DedupeTTL, convey.ShouldEqual, time.Hour)
		convey.So(cfg.Glicko.Tau, convey.ShouldEqual, 0.3)
		convey.So(cfg.Glicko.BaseRating, convey.ShouldEqual, 1600)
		convey.So(cfg.Glicko.TeamMode, convey.ShouldEqual, "merged")
		convey.So(cfg.Glicko.DecayPeriod, convey.ShouldEqual, 7*24*time.Hour)
		convey.So(cfg.Elo.RainbowK, convey.ShouldEqual, 12)
		convey.So(cfg.Elo.StandardK, convey.ShouldEqual, 4)
	})
}

func TestConfigLoaderFile(t *testing.T) {
	path := writeTemp(t, "config.yaml", `
addr: ":9090"
worker_count: 24
glicko:
  base_rating: 1500
  gray_deviation: 50
`)
	t.Setenv("RATINGS_CONFIG", path)
	t.Setenv("RATINGS_WORKER_COUNT", "32")

	convey.Convey("Given a YAML file and an env override", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then env wins over the file and the file over defaults", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.Glicko.BaseRating, convey.ShouldEqual, 1500)
			convey.So(cfg.Glicko.BaseDeviation, convey.ShouldEqual, 350)
			convey.So(cfg.Glicko.GrayDeviation, convey.ShouldEqual, 50)
		})
	})
}

func TestConfigLoaderEnvFile(t *testing.T) {
	path := writeTemp(t, ".env", "RATINGS_SHARD_COUNT=4\nRATINGS_DATABASE_URL=postgres://localhost/ratings\n")
	t.Setenv("RATINGS_ENV_FILE", path)
	t.Setenv("RATINGS_SHARD_COUNT", "8")
	t.Cleanup(func() { _ = os.Unsetenv("RATINGS_DATABASE_URL") })

	convey.Convey("Given a dotenv file", t, func() {
		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.DatabaseURL, convey.ShouldEqual, "postgres://localhost/ratings")
		convey.So(cfg.ShardCount, convey.ShouldEqual, 8)
	})
}

func TestConfigLoaderMissingFile(t *testing.T) {
	t.Setenv("RATINGS_CONFIG", "/non/existent/file.yaml")

	convey.Convey("Given a config path that does not exist", t, func() {
		cfg, err := config.Load(context.Background())
		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		convey.So(cfg, convey.ShouldBeNil)
	})
}

func TestConfigLoaderInvalidYAML(t *testing.T) {
	t.Setenv("RATINGS_CONFIG", writeTemp(t, "bad.yaml", `invalid: yaml: content: [`))

	convey.Convey("Given a malformed YAML file", t, func() {
		cfg, err := config.Load(context.Background())
		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		convey.So(cfg, convey.ShouldBeNil)
	})
}

func TestConfigLoaderInvalidNumber(t *testing.T) {
	t.Setenv("RATINGS_QUEUE_SIZE", "invalid")

	convey.Convey("Given a non-numeric queue size", t, func() {
		cfg, err := config.Load(context.Background())
		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		convey.So(cfg, convey.ShouldBeNil)
	})
}

func TestConfigLoaderEmptyAddr(t *testing.T) {
	t.Setenv("RATINGS_ADDR", "")

	convey.Convey("Given an empty listen address", t, func() {
		cfg, err := config.Load(context.Background())
		convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
		convey.So(cfg, convey.ShouldBeNil)
	})
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
