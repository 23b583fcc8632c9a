package risk_test

import (
	"errors"
	"math"
	"testing"

	"github.com/grbuguj/Sinker-IOT/internal/domain/model"
	risk "github.com/grbuguj/Sinker-IOT/internal/domain/risk"
	"github.com/grbuguj/Sinker-IOT/internal/domain/thresholds"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSelect(t *testing.T) {
	Convey("Given the strategy registry", t, func() {
		Convey("When selecting by name", func() {
			Convey("Then fusion and the empty name map to the fusion strategy", func() {
				for _, name := range []string{"", risk.StrategyFusion} {
					s, err := risk.Select(name)
					So(err, ShouldBeNil)
					So(s, ShouldHaveSameTypeAs, risk.Fusion{})
				}
			})

			Convey("And delta maps to a fresh delta strategy", func() {
				s, err := risk.Select(risk.StrategyDelta)
				So(err, ShouldBeNil)
				So(s, ShouldHaveSameTypeAs, &risk.Delta{})
			})

			Convey("And an unknown name is rejected", func() {
				_, err := risk.Select("bayesian")
				So(err, ShouldNotBeNil)
				So(errors.Is(err, risk.ErrUnknownStrategy), ShouldBeTrue)
			})
		})
	})
}

func TestDeltaStrategy(t *testing.T) {
	Convey("Given a delta strategy with default thresholds", t, func() {
		snap := thresholds.FromMap(nil)
		d := risk.NewDelta()

		quiet := model.Reading{
			Moisture:     100.0,
			Accel:        model.Vector3{X: 0, Y: 0, Z: 9.8},
			VibrationRaw: 0,
		}

		Convey("When classifying the first reading", func() {
			level, err := d.Classify(quiet, snap)

			Convey("Then delta channels contribute nothing", func() {
				So(err, ShouldBeNil)
				So(level, ShouldEqual, model.RiskNormal)
			})
		})

		Convey("When the moisture absolute cutoffs fire", func() {
			r := quiet
			r.Moisture = 650.0
			level, err := d.Classify(r, snap)
			So(err, ShouldBeNil)
			So(level, ShouldEqual, model.RiskWarning)

			r.Moisture = 700.0
			level, err = d.Classify(r, snap)
			So(err, ShouldBeNil)
			So(level, ShouldEqual, model.RiskDanger)
		})

		Convey("When a sudden acceleration jump follows a quiet reading", func() {
			_, err := d.Classify(quiet, snap)
			So(err, ShouldBeNil)

			jumped := quiet
			jumped.Accel.X = 1.5 // delta 1.5, past accel_delta_warning
			level, err := d.Classify(jumped, snap)

			Convey("Then the accel delta channel should raise warning", func() {
				So(err, ShouldBeNil)
				So(level, ShouldEqual, model.RiskWarning)
			})

			Convey("And a further jump of the same size keeps warning, not danger", func() {
				again := jumped
				again.Accel.X = 3.0 // delta vs previous is again 1.5
				level, err := d.Classify(again, snap)
				So(err, ShouldBeNil)
				So(level, ShouldEqual, model.RiskWarning)
			})
		})

		Convey("When the gyro swings past its danger delta", func() {
			_, err := d.Classify(quiet, snap)
			So(err, ShouldBeNil)

			spun := quiet
			spun.Gyro.Z = 12.0
			level, err := d.Classify(spun, snap)

			Convey("Then the overall level is the channel maximum", func() {
				So(err, ShouldBeNil)
				So(level, ShouldEqual, model.RiskDanger)
			})
		})

		Convey("When a reading is not finite", func() {
			bad := quiet
			bad.VibrationRaw = math.NaN()
			_, err := d.Classify(bad, snap)
			So(errors.Is(err, risk.ErrInvalidReading), ShouldBeTrue)
		})
	})
}
