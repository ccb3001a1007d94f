package profile_test

import (
	"testing"
	"time"

	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/profile"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecode(t *testing.T) {
	rules := profile.DefaultRules()

	Convey("Given malformed persisted profiles", t, func() {
		Convey("When the payload is not JSON", func() {
			p := profile.Decode([]byte("{oops"), rules)
			So(p.Name, ShouldBeEmpty)
			So(p.Ratings, ShouldBeEmpty)
			So(p.CategoryHistory, ShouldHaveLength, 3)
		})

		Convey("When ratings is not a list", func() {
			p := profile.Decode([]byte(`{"name":"Alex","ratings":{"score":4}}`), rules)
			So(p.Name, ShouldEqual, "Alex")
			So(p.Ratings, ShouldNotBeNil)
			So(p.Ratings, ShouldBeEmpty)
			So(p.OverallScore, ShouldEqual, 0)
		})

		Convey("When ratings have odd shapes", func() {
			p := profile.Decode([]byte(`{
				"name": "Alex",
				"ratings": [
					{"category": "Skill", "score": 4, "ratedAt": "2025-04-02T10:00:00Z"},
					{"category": "Skill", "score": "2", "ratedAt": "2025-04-01"},
					{"category": "Skill"},
					{"category": "Skill", "score": null},
					{"category": "Skill", "score": "high"},
					{"category": "Teamwork", "score": 3, "ratedAt": 12},
					"junk"
				],
				"jobCategories": "Skill",
				"strengths": ["fast", 3, null],
				"overallScore": 99,
				"overallStatus": "top-performer"
			}`), rules)

			Convey("Then unusable ratings are dropped", func() {
				So(p.Ratings, ShouldHaveLength, 3)
				So(p.OverallScore, ShouldEqual, 3)
				So(p.OverallStatus, ShouldEqual, model.StatusSteady)
			})

			Convey("Then timestamps degrade to the zero time", func() {
				So(p.CategoryHistory["Teamwork"][0].RatedAt.IsZero(), ShouldBeTrue)
				So(p.CategoryHistory["Skill"][0].RatedAt.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})

			Convey("Then list fields keep only strings", func() {
				So(p.Strengths, ShouldResemble, []string{"fast"})
				So(p.JobCategories, ShouldResemble, []string{"Skill", "Teamwork"})
			})
		})
	})

	Convey("Given an encoded profile", t, func() {
		profiles := upsertAll(rules, rate("Alex", "Skill", 4, 0), rate("Alex", "Teamwork", 5, 1))
		raw, err := profile.EncodeCollection(profiles, profile.DefaultCollectionKey)
		So(err, ShouldBeNil)

		Convey("When it is decoded again", func() {
			decoded := profile.DecodeCollection(raw, profile.DefaultCollectionKey, rules)
			So(decoded, ShouldHaveLength, 1)
			So(decoded[0].Name, ShouldEqual, "Alex")
			So(decoded[0].OverallScore, ShouldEqual, 4.5)
			So(decoded[0].CategoryHistory["Teamwork"], ShouldHaveLength, 1)
			So(decoded[0].CategoryHistory["Teamwork"][0].RatedAt.Equal(at(1)), ShouldBeTrue)
		})
	})
}

func TestDecodeCollection(t *testing.T) {
	rules := profile.DefaultRules()

	Convey("Given stored collections", t, func() {
		Convey("When nothing is stored", func() {
			So(profile.DecodeCollection(nil, profile.DefaultCollectionKey, rules), ShouldBeEmpty)
			So(profile.DecodeCollection(nil, profile.DefaultCollectionKey, rules), ShouldNotBeNil)
		})

		Convey("When the key is missing or holds the wrong shape", func() {
			So(profile.DecodeCollection([]byte(`{"other":[]}`), profile.DefaultCollectionKey, rules), ShouldBeEmpty)
			So(profile.DecodeCollection([]byte(`{"crewrate.profiles":{}}`), profile.DefaultCollectionKey, rules), ShouldBeEmpty)
			So(profile.DecodeCollection([]byte(`[1,2]`), profile.DefaultCollectionKey, rules), ShouldBeEmpty)
		})

		Convey("When entries lack names or repeat one", func() {
			raw := []byte(`{"crewrate.profiles":[
				{"name":"Jane","ratings":[{"category":"Skill","score":4,"ratedAt":"2025-04-01T00:00:00Z"}]},
				{"ratings":[{"category":"Skill","score":1}]},
				{"name":"  jane","ratings":[{"category":"Skill","score":2,"ratedAt":"2025-04-03T00:00:00Z"}]},
				{"name":"Kai"}
			]}`)
			profiles := profile.DecodeCollection(raw, profile.DefaultCollectionKey, rules)

			So(profiles, ShouldHaveLength, 2)
			So(profiles[0].Name, ShouldEqual, "Jane")
			So(profiles[0].Ratings, ShouldHaveLength, 2)
			So(profiles[0].OverallScore, ShouldEqual, 3)
			So(profiles[0].CategoryHistory["Skill"], ShouldHaveLength, 2)
			So(profiles[1].Name, ShouldEqual, "Kai")
		})
	})
}

func TestParseScore(t *testing.T) {
	Convey("Given raw score values", t, func() {
		f, ok := profile.ParseScore([]byte(`4.5`))
		So(ok, ShouldBeTrue)
		So(f, ShouldEqual, 4.5)

		f, ok = profile.ParseScore([]byte(`" 3 "`))
		So(ok, ShouldBeTrue)
		So(f, ShouldEqual, 3)

		for _, bad := range []string{``, `null`, `"abc"`, `true`, `{}`, `"NaN"`} {
			_, ok = profile.ParseScore([]byte(bad))
			So(ok, ShouldBeFalse)
		}
	})
}
