package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/crewrate/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestRatingRecord(t *testing.T) {
	convey.Convey("Given a persisted rating record", t, func() {
		date := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
		rec := model.RatingRecord{
			ID:           7,
			WorkerID:     3,
			WorkerName:   "Alex",
			Date:         date,
			JobCategory:  "Skill",
			OverallScore: 4.5,
			Flags:        model.Flags{Late: true},
			Reviewer:     "Sam",
			Notes:        "fast learner",
		}

		convey.Convey("When converting it to a rating", func() {
			r := rec.Rating()

			convey.Convey("Then the fields map onto the rating shape", func() {
				convey.So(r.WorkerName, convey.ShouldEqual, "Alex")
				convey.So(r.Category, convey.ShouldEqual, "Skill")
				convey.So(r.Score, convey.ShouldEqual, 4.5)
				convey.So(r.Reviewer, convey.ShouldEqual, "Sam")
				convey.So(r.Note, convey.ShouldEqual, "fast learner")
				convey.So(r.RatedAt.Equal(date), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When encoding it as JSON", func() {
			raw, err := json.Marshal(rec)
			convey.So(err, convey.ShouldBeNil)

			var out map[string]any
			convey.So(json.Unmarshal(raw, &out), convey.ShouldBeNil)

			convey.Convey("Then it uses the gateway field names", func() {
				convey.So(out["workerId"], convey.ShouldEqual, 3.0)
				convey.So(out["jobCategory"], convey.ShouldEqual, "Skill")
				convey.So(out["overallScore"], convey.ShouldEqual, 4.5)
				convey.So(out["flags"], convey.ShouldResemble, map[string]any{"late": true, "ncns": false})
			})
		})
	})
}

func TestStatus(t *testing.T) {
	convey.Convey("Given the status values", t, func() {
		convey.So(string(model.StatusTopPerformer), convey.ShouldEqual, "top-performer")
		convey.So(string(model.StatusSteady), convey.ShouldEqual, "steady")
		convey.So(string(model.StatusAtRisk), convey.ShouldEqual, "at-risk")
	})
}
