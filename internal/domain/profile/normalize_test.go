package profile_test

import (
	"math"
	"testing"

	"github.com/okian/crewrate/internal/domain/category"
	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/profile"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	rules := profile.DefaultRules()

	Convey("Given an empty profile value", t, func() {
		p := profile.Normalize(model.WorkerProfile{}, rules)

		Convey("Then every collection is present and empty", func() {
			So(p.Ratings, ShouldNotBeNil)
			So(p.Ratings, ShouldBeEmpty)
			So(p.JobCategories, ShouldNotBeNil)
			So(p.Strengths, ShouldNotBeNil)
			So(p.Weaknesses, ShouldNotBeNil)
			So(p.CategoryHistory, ShouldHaveLength, 3)
			So(p.OverallScore, ShouldEqual, 0)
		})
	})

	Convey("Given legacy data with only a flat rating list", t, func() {
		raw := model.WorkerProfile{
			Name: "Alex",
			Ratings: []model.Rating{
				rate("Alex", "skill", 4, 2),
				rate("Alex", "Skill", 2, 0),
				rate("Alex", "Teamwork", 5, 1),
			},
		}
		p := profile.Normalize(raw, rules)

		Convey("Then history is rebuilt from the ratings", func() {
			So(p.CategoryHistory["Skill"], ShouldHaveLength, 2)
			So(p.CategoryHistory["Skill"][0].Score, ShouldEqual, 2)
			So(p.CategoryHistory["Teamwork"], ShouldHaveLength, 1)
			So(p.JobCategories, ShouldResemble, []string{"Skill", "Teamwork"})
		})

		Convey("Then derived fields are recomputed", func() {
			So(p.OverallScore, ShouldEqual, 3.67)
			So(p.OverallStatus, ShouldEqual, model.StatusSteady)
		})
	})

	Convey("Given history that already holds some of the ratings", t, func() {
		shared := rate("Alex", "Skill", 4, 0)
		dup := rate("Alex", "Skill", 3, 1)
		raw := model.WorkerProfile{
			Name:    "Alex",
			Ratings: []model.Rating{shared, dup, dup},
			CategoryHistory: map[string][]model.Rating{
				"Skill": {dup, shared},
			},
		}
		p := profile.Normalize(raw, rules)

		Convey("Then matching entries are not duplicated", func() {
			So(p.CategoryHistory["Skill"], ShouldHaveLength, 3)
			So(p.Ratings, ShouldHaveLength, 3)
		})

		Convey("Then history is sorted by time", func() {
			h := p.CategoryHistory["Skill"]
			So(h[0].Score, ShouldEqual, 4)
			So(h[1].Score, ShouldEqual, 3)
			So(h[2].Score, ShouldEqual, 3)
		})
	})

	Convey("Given unrecognized and duplicated categories", t, func() {
		raw := model.WorkerProfile{
			Name:          "Alex",
			Ratings:       []model.Rating{rate("Alex", "Cooking", 1, 0), rate("Alex", "Skill", 5, 1)},
			JobCategories: []string{"Cooking", "skill", "Skill", "teamwork"},
			CategoryHistory: map[string][]model.Rating{
				"Cooking":  {rate("Alex", "Cooking", 1, 0)},
				"teamwork": {rate("Alex", "teamwork", 3, 2)},
			},
		}
		p := profile.Normalize(raw, rules)

		Convey("Then unrecognized categories are dropped", func() {
			So(p.CategoryHistory, ShouldNotContainKey, "Cooking")
			So(p.JobCategories, ShouldResemble, []string{"Skill", "Teamwork"})
			So(p.CategoryHistory["Teamwork"], ShouldHaveLength, 1)
			So(p.CategoryHistory["Teamwork"][0].Category, ShouldEqual, "Teamwork")
		})

		Convey("Then the flat rating list drops them too", func() {
			So(p.Ratings, ShouldHaveLength, 1)
			So(p.Ratings[0].Category, ShouldEqual, "Skill")
			So(p.OverallScore, ShouldEqual, 5)
		})
	})

	Convey("Given ratings in a category that is later removed", t, func() {
		ratings := []model.Rating{rate("Alex", "Skill", 5, 0), rate("Alex", "Punctuality", 1, 1)}
		narrowed := rules
		narrowed.Categories = category.NewSet(category.Skill, category.Teamwork)

		built := profile.Build("Alex", ratings, narrowed)
		normalized := profile.Normalize(profile.Build("Alex", ratings, rules), narrowed)

		Convey("Then Build and Normalize agree on the result", func() {
			So(built.OverallScore, ShouldEqual, 5)
			So(built.OverallStatus, ShouldEqual, model.StatusTopPerformer)
			So(normalized.OverallScore, ShouldEqual, built.OverallScore)
			So(normalized.OverallStatus, ShouldEqual, built.OverallStatus)
			So(normalized.Ratings, ShouldResemble, built.Ratings)
			So(normalized.JobCategories, ShouldResemble, built.JobCategories)
			So(normalized.CategoryHistory, ShouldResemble, built.CategoryHistory)
		})
	})

	Convey("Given ratings with non-finite scores and blank notes", t, func() {
		raw := model.WorkerProfile{
			Name:       "Alex",
			Ratings:    []model.Rating{rate("Alex", "Skill", math.Inf(1), 0), rate("Alex", "Skill", 4, 1)},
			Strengths:  []string{"", "  reliable "},
			Weaknesses: []string{"   "},
		}
		p := profile.Normalize(raw, rules)
		So(p.Ratings, ShouldHaveLength, 1)
		So(p.Strengths, ShouldResemble, []string{"reliable"})
		So(p.Weaknesses, ShouldBeEmpty)
	})

	Convey("Given any profile", t, func() {
		profiles := upsertAll(rules,
			rate("Alex", "Skill", 2, 3),
			rate("Alex", "Skill", 2, 3),
			rate("Alex", "Punctuality", 1, 0),
			rate("Alex", "Teamwork", 5, 1),
		)
		messy := profiles[0]
		messy.Ratings = append(messy.Ratings, rate("Alex", "skill", 3, 2))

		Convey("Then normalizing twice equals normalizing once", func() {
			once := profile.Normalize(messy, rules)
			twice := profile.Normalize(once, rules)
			So(twice, ShouldResemble, once)
		})

		Convey("Then an upserted profile is already normalized", func() {
			So(profile.Normalize(profiles[0], rules), ShouldResemble, profiles[0])
		})
	})
}
