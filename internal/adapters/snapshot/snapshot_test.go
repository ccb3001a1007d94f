package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/crewrate/internal/adapters/snapshot"
	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/profile"
)

func rating(name, category string, score float64, day int) model.Rating {
	return model.Rating{
		WorkerName: name,
		Category:   category,
		Score:      score,
		Reviewer:   "lead",
		RatedAt:    time.Date(2025, 7, day, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	rules := profile.DefaultRules()

	Convey("Given a file store in an empty directory", t, func() {
		path := filepath.Join(t.TempDir(), "nested", "profiles.json")
		store := snapshot.New(path)

		Convey("When nothing has been saved", func() {
			profiles, err := store.Load(ctx)
			So(err, ShouldBeNil)
			So(profiles, ShouldNotBeNil)
			So(profiles, ShouldBeEmpty)
		})

		Convey("When ratings are submitted through it", func() {
			_, created, err := profile.Submit(ctx, store, rating("Alex", "Skill", 2, 1), rules)
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)
			p, created, err := profile.Submit(ctx, store, rating("alex", "Skill", 4, 2), rules)
			So(err, ShouldBeNil)
			So(created, ShouldBeFalse)
			So(p.OverallScore, ShouldEqual, 3)

			Convey("Then a fresh store reads the same collection", func() {
				profiles, err := snapshot.New(path).Load(ctx)
				So(err, ShouldBeNil)
				So(profiles, ShouldHaveLength, 1)
				So(profiles[0].CategoryHistory["Skill"], ShouldHaveLength, 2)
				So(profiles[0].OverallScore, ShouldEqual, 3)
			})

			Convey("Then the file holds the namespaced key", func() {
				raw, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, `"crewrate.profiles"`)
			})

			Convey("Then no temp files are left behind", func() {
				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})

			Convey("Then reset empties the collection", func() {
				So(store.Reset(ctx), ShouldBeNil)
				profiles, err := store.Load(ctx)
				So(err, ShouldBeNil)
				So(profiles, ShouldBeEmpty)
			})
		})

		Convey("When the file is corrupt", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o755), ShouldBeNil)
			So(os.WriteFile(path, []byte("not json at all"), 0o600), ShouldBeNil)

			Convey("Then it loads as empty", func() {
				profiles, err := store.Load(ctx)
				So(err, ShouldBeNil)
				So(profiles, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a store with a custom key", t, func() {
		path := filepath.Join(t.TempDir(), "profiles.json")
		custom := snapshot.New(path, snapshot.WithKey("team.a"), snapshot.WithRules(profile.DefaultRules))
		So(custom.Path(), ShouldEqual, path)
		_, _, err := profile.Submit(ctx, custom, rating("Bea", "Teamwork", 5, 3), rules)
		So(err, ShouldBeNil)

		Convey("Then other keys do not see its data", func() {
			profiles, err := snapshot.New(path).Load(ctx)
			So(err, ShouldBeNil)
			So(profiles, ShouldBeEmpty)

			profiles, err = custom.Load(ctx)
			So(err, ShouldBeNil)
			So(profiles, ShouldHaveLength, 1)
		})
	})
}
