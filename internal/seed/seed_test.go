package seed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/crewrate/internal/adapters/http/api"
	"github.com/okian/crewrate/internal/adapters/repository"
	service "github.com/okian/crewrate/internal/app"
	"github.com/okian/crewrate/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func TestGenerator(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	cats := []string{"Punctuality", "Skill", "Teamwork"}
	cfg := Config{Workers: 6, Ratings: 40, Days: 10}.withDefaults()

	Convey("Given a seeded generator", t, func() {
		ratings := newGenerator(42, cats, 1, 5, now).ratings(cfg)

		Convey("Then it produces the requested number of ratings", func() {
			So(len(ratings), ShouldEqual, 40)
		})

		Convey("Then every rating stays inside the scale and the category set", func() {
			names := map[string]bool{}
			for _, r := range ratings {
				names[r.WorkerName] = true
				So(r.Score, ShouldBeBetweenOrEqual, 1, 5)
				So(cats, ShouldContain, r.Category)
				at, err := time.Parse(time.RFC3339, r.RatedAt)
				So(err, ShouldBeNil)
				So(at.After(now), ShouldBeFalse)
				So(at.Before(now.AddDate(0, 0, -10)), ShouldBeFalse)
			}
			So(len(names), ShouldEqual, 6)
		})

		Convey("Then the same seed yields the same scores", func() {
			again := newGenerator(42, cats, 1, 5, now).ratings(cfg)
			for i := range ratings {
				So(again[i].WorkerName, ShouldEqual, ratings[i].WorkerName)
				So(again[i].Score, ShouldEqual, ratings[i].Score)
			}
		})

		Convey("Then a narrow scale clamps scores", func() {
			for _, r := range newGenerator(7, cats, 3, 4, now).ratings(cfg) {
				So(r.Score, ShouldBeBetweenOrEqual, 3, 4)
			}
		})
	})
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	st, err := repository.Open(context.Background(), repository.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc := service.New(st)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv := newTestServer(t)
		out := filepath.Join(t.TempDir(), "seed", "ratings.json")

		Convey("When seeding it", func() {
			st, err := Run(context.Background(), Config{
				BaseURL:     srv.URL,
				Workers:     5,
				Ratings:     30,
				Concurrency: 4,
				Seed:        1,
				OutputFile:  out,
			})

			Convey("Then every rating is accepted and each worker is created once", func() {
				So(err, ShouldBeNil)
				So(st.Generated, ShouldEqual, 30)
				So(st.Failed, ShouldEqual, 0)
				So(st.Successful(), ShouldEqual, 30)
				So(st.Created, ShouldEqual, 5)
				So(st.WorkersAfter-st.WorkersBefore, ShouldEqual, 5)
				So(st.RatingsAfter-st.RatingsBefore, ShouldEqual, 30)
			})

			Convey("Then the generated ratings are saved", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var saved []Rating
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(len(saved), ShouldEqual, 30)
			})
		})
	})

	Convey("Given no server", t, func() {
		Convey("Then the health check fails", func() {
			_, err := Run(context.Background(), Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}
