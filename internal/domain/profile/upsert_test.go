package profile_test

import (
	"math"
	"testing"
	"time"

	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/profile"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

func at(days int) time.Time { return t0.AddDate(0, 0, days) }

func rate(name, category string, score float64, days int) model.Rating {
	return model.Rating{
		WorkerName: name,
		Category:   category,
		Score:      score,
		Reviewer:   "Sam",
		RatedAt:    at(days),
	}
}

func upsertAll(rules profile.Rules, ratings ...model.Rating) []model.WorkerProfile {
	var profiles []model.WorkerProfile
	for _, r := range ratings {
		next, err := profile.Upsert(profiles, r, rules)
		So(err, ShouldBeNil)
		profiles = next
	}
	return profiles
}

func TestUpsert(t *testing.T) {
	rules := profile.DefaultRules()

	Convey("Given no profiles", t, func() {
		Convey("When a first rating arrives for Alex", func() {
			profiles := upsertAll(rules, model.Rating{
				WorkerName: "Alex",
				Category:   "Skill",
				Score:      4,
				Reviewer:   "Sam",
				RatedAt:    at(0),
			})

			Convey("Then a steady profile is created", func() {
				So(profiles, ShouldHaveLength, 1)
				p := profiles[0]
				So(p.Name, ShouldEqual, "Alex")
				So(p.OverallScore, ShouldEqual, 4)
				So(p.OverallStatus, ShouldEqual, model.StatusSteady)
				So(p.JobCategories, ShouldResemble, []string{"Skill"})
			})

			Convey("Then every recognized category has a history slot", func() {
				p := profiles[0]
				So(p.CategoryHistory, ShouldHaveLength, 3)
				So(p.CategoryHistory["Skill"], ShouldHaveLength, 1)
				So(p.CategoryHistory["Punctuality"], ShouldNotBeNil)
				So(p.CategoryHistory["Punctuality"], ShouldBeEmpty)
				So(p.CategoryHistory["Teamwork"], ShouldBeEmpty)
			})
		})
	})

	Convey("Given a profile with Skill ratings 3 and 5", t, func() {
		profiles := upsertAll(rules, rate("Alex", "Skill", 3, 0), rate("Alex", "Skill", 5, 1))
		So(profiles[0].OverallScore, ShouldEqual, 4)
		So(profiles[0].OverallStatus, ShouldEqual, model.StatusSteady)

		Convey("When a third rating of 5 is added", func() {
			next, err := profile.Upsert(profiles, rate("Alex", "Skill", 5, 2), rules)
			So(err, ShouldBeNil)

			Convey("Then the mean is rounded to two decimals", func() {
				So(next[0].OverallScore, ShouldEqual, 4.33)
				// 4.33 is at or above the 4.2 threshold.
				So(next[0].OverallStatus, ShouldEqual, model.StatusTopPerformer)
			})

			Convey("Then the original collection is untouched", func() {
				So(profiles[0].Ratings, ShouldHaveLength, 2)
				So(profiles[0].CategoryHistory["Skill"], ShouldHaveLength, 2)
				So(profiles[0].OverallScore, ShouldEqual, 4)
			})
		})
	})

	Convey("Given names that differ only in case and spacing", t, func() {
		profiles := upsertAll(rules,
			rate("jane", "Skill", 4, 0),
			rate("Jane", "Teamwork", 2, 1),
			rate("  JANE ", "skill", 3, 2),
		)

		Convey("Then a single profile is mutated", func() {
			So(profiles, ShouldHaveLength, 1)
			So(profiles[0].Name, ShouldEqual, "jane")
			So(profiles[0].Ratings, ShouldHaveLength, 3)
			So(profiles[0].OverallScore, ShouldEqual, 3)
		})

		Convey("Then category spelling is canonical", func() {
			So(profiles[0].JobCategories, ShouldResemble, []string{"Skill", "Teamwork"})
			So(profiles[0].CategoryHistory["Skill"], ShouldHaveLength, 2)
		})
	})

	Convey("Given ratings submitted out of chronological order", t, func() {
		ratings := []model.Rating{
			rate("Kai", "Skill", 2, 5),
			rate("Kai", "Teamwork", 4, 1),
			rate("Kai", "Skill", 4, 0),
			rate("Kai", "Skill", 5, 3),
		}
		forward := upsertAll(rules, ratings...)
		backward := upsertAll(rules, ratings[3], ratings[2], ratings[1], ratings[0])

		Convey("Then history is sorted by rating time", func() {
			h := forward[0].CategoryHistory["Skill"]
			So(h, ShouldHaveLength, 3)
			So(h[0].Score, ShouldEqual, 4)
			So(h[1].Score, ShouldEqual, 5)
			So(h[2].Score, ShouldEqual, 2)
			So(backward[0].CategoryHistory["Skill"], ShouldResemble, h)
		})

		Convey("Then score and categories do not depend on order", func() {
			So(backward[0].OverallScore, ShouldEqual, forward[0].OverallScore)
			So(backward[0].OverallStatus, ShouldEqual, forward[0].OverallStatus)
			So(backward[0].JobCategories, ShouldHaveLength, 2)
			So(backward[0].JobCategories, ShouldContain, "Skill")
			So(backward[0].JobCategories, ShouldContain, "Teamwork")
		})
	})

	Convey("Given ratings with notes", t, func() {
		first := rate("Mo", "Teamwork", 5, 0)
		first.Note = "  great mentor "
		second := rate("Mo", "Skill", 4, 1)
		second.Note = "fast learner"
		third := rate("Mo", "Skill", 4, 2)
		profiles := upsertAll(rules, first, second, third)

		Convey("Then notes are collected as strengths", func() {
			So(profiles[0].Strengths, ShouldResemble, []string{"great mentor", "fast learner"})
			So(profiles[0].Weaknesses, ShouldBeEmpty)
			So(profiles[0].Ratings[0].Note, ShouldEqual, "great mentor")
		})
	})

	Convey("Given invalid ratings", t, func() {
		Convey("When the worker name is blank", func() {
			_, err := profile.Upsert(nil, rate("   ", "Skill", 4, 0), rules)
			So(err, ShouldWrap, profile.ErrEmptyName)
		})

		Convey("When the category is not recognized", func() {
			_, err := profile.Upsert(nil, rate("Alex", "Cooking", 4, 0), rules)
			So(err, ShouldWrap, profile.ErrUnknownCategory)
		})

		Convey("When the score is not a number", func() {
			_, err := profile.Upsert(nil, rate("Alex", "Skill", math.NaN(), 0), rules)
			So(err, ShouldWrap, profile.ErrInvalidScore)
		})

		Convey("When the score is outside the scale", func() {
			_, err := profile.Upsert(nil, rate("Alex", "Skill", 7, 0), rules)
			So(err, ShouldWrap, profile.ErrScoreOutOfRange)

			open := rules
			open.ScoreMin, open.ScoreMax = 0, 0
			_, err = profile.Upsert(nil, rate("Alex", "Skill", 7, 0), open)
			So(err, ShouldBeNil)
		})
	})

	Convey("Given custom thresholds", t, func() {
		custom := rules
		custom.Thresholds.TopPerformerMin = 3.9
		profiles := upsertAll(custom, rate("Alex", "Skill", 4, 0))
		So(profiles[0].OverallStatus, ShouldEqual, model.StatusTopPerformer)
	})
}

func TestBuild(t *testing.T) {
	rules := profile.DefaultRules()

	Convey("Given stored ratings for a worker", t, func() {
		ratings := []model.Rating{
			{Category: "skill", Score: 4, RatedAt: at(2), Note: "steady hands"},
			{Category: "Teamwork", Score: 2, RatedAt: at(1)},
			{Category: "Retired", Score: 1, RatedAt: at(0)},
			{Category: "Skill", Score: 8, RatedAt: at(3)},
		}

		Convey("When the profile is built", func() {
			p := profile.Build("Alex", ratings, rules)

			Convey("Then it folds every valid rating", func() {
				So(p.Name, ShouldEqual, "Alex")
				So(p.Ratings, ShouldHaveLength, 3)
				So(p.OverallScore, ShouldEqual, 4.67)
				So(p.Strengths, ShouldResemble, []string{"steady hands"})
				So(p.Ratings[0].WorkerName, ShouldEqual, "Alex")
			})

			Convey("Then it matches an upsert of the same ratings", func() {
				var profiles []model.WorkerProfile
				for _, r := range ratings[:2] {
					r.WorkerName = "Alex"
					profiles, _ = profile.Upsert(profiles, r, rules)
				}
				So(profile.Build("Alex", ratings[:2], rules), ShouldResemble, profiles[0])
			})
		})

		Convey("When there are no ratings", func() {
			p := profile.Build("Nobody", nil, rules)
			So(p.OverallScore, ShouldEqual, 0)
			So(p.OverallStatus, ShouldEqual, model.StatusAtRisk)
			So(p.Ratings, ShouldNotBeNil)
			So(p.JobCategories, ShouldNotBeNil)
		})
	})
}

func TestNameKey(t *testing.T) {
	Convey("Given worker names", t, func() {
		So(profile.NameKey("Jane"), ShouldEqual, profile.NameKey("jane"))
		So(profile.NameKey("  Mary   Ann "), ShouldEqual, "mary ann")
		So(profile.NameKey(""), ShouldEqual, "")
	})

	Convey("Given a collection to sort", t, func() {
		profiles := []model.WorkerProfile{{Name: "bob"}, {Name: "Alice"}, {Name: "carl"}}
		profile.SortByName(profiles)
		So(profiles[0].Name, ShouldEqual, "Alice")
		So(profiles[2].Name, ShouldEqual, "carl")

		p, ok := profile.Find(profiles, "BOB")
		So(ok, ShouldBeTrue)
		So(p.Name, ShouldEqual, "bob")
		_, ok = profile.Find(profiles, "dave")
		So(ok, ShouldBeFalse)
	})
}
