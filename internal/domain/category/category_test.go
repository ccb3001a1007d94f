package category_test

import (
	"testing"

	"github.com/okian/crewrate/internal/domain/category"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSet(t *testing.T) {
	Convey("Given the default category set", t, func() {
		s := category.Default()

		Convey("Then it should list the built-in categories in order", func() {
			So(s.Names(), ShouldResemble, []string{"Punctuality", "Skill", "Teamwork"})
			So(s.Len(), ShouldEqual, 3)
		})

		Convey("When looking up a name in a different case", func() {
			c, ok := s.Canonical("  sKiLL ")

			Convey("Then it should return the configured spelling", func() {
				So(ok, ShouldBeTrue)
				So(c, ShouldEqual, "Skill")
			})
		})

		Convey("When looking up an unknown name", func() {
			So(s.Contains("Cooking"), ShouldBeFalse)
		})

		Convey("When the caller mutates the returned names", func() {
			names := s.Names()
			names[0] = "Changed"

			Convey("Then the set should be unaffected", func() {
				So(s.Names()[0], ShouldEqual, "Punctuality")
			})
		})
	})

	Convey("Given names with blanks and case-insensitive duplicates", t, func() {
		s := category.NewSet("Safety", "", "  ", "safety", "Speed")

		Convey("Then blanks are skipped and the first spelling wins", func() {
			So(s.Names(), ShouldResemble, []string{"Safety", "Speed"})
		})
	})

	Convey("Given the zero Set", t, func() {
		var s category.Set

		Convey("Then it should recognize nothing", func() {
			So(s.Contains("Skill"), ShouldBeFalse)
			So(s.Names(), ShouldBeEmpty)
		})
	})
}
