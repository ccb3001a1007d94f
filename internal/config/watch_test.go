package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/crewrate/internal/config"
	"github.com/okian/crewrate/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestWatch(t *testing.T) {
	convey.Convey("Given a watched config file", t, func() {
		clearConfigEnvVars()
		path := filepath.Join(t.TempDir(), "crewrate.yaml")
		convey.So(os.WriteFile(path, []byte("score_max: 5\n"), 0o600), convey.ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes := make(chan *config.Config, 4)
		done := make(chan error, 1)
		go func() {
			done <- config.Watch(ctx, path, func(c *config.Config) { changes <- c })
		}()
		// let the watcher register before writing
		time.Sleep(100 * time.Millisecond)

		convey.Convey("When the file is rewritten with valid content", func() {
			convey.So(os.WriteFile(path, []byte("score_max: 10\n"), 0o600), convey.ShouldBeNil)

			convey.Convey("Then the reloaded config is delivered", func() {
				// a truncate can surface as its own event, so wait for the final content
				deadline := time.After(5 * time.Second)
				var got *config.Config
				for got == nil {
					select {
					case c := <-changes:
						if c.ScoreMax == 10 {
							got = c
						}
					case <-deadline:
						t.Fatal("no reload observed")
					}
				}
				convey.So(got.Path, convey.ShouldEqual, path)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			cancel()

			convey.Convey("Then the watcher stops cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("watcher did not stop")
				}
			})
		})
	})
}
