package thresholds_test

import (
	"context"
	"errors"
	"testing"

	"github.com/grbuguj/Sinker-IOT/internal/domain/thresholds"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStore(t *testing.T) {
	Convey("Given an empty in-memory threshold store", t, func() {
		ctx := context.Background()
		store := thresholds.NewMemStore()

		Convey("When seeding the defaults", func() {
			err := store.Seed(ctx, thresholds.Defaults())
			So(err, ShouldBeNil)

			Convey("Then every default should be listed", func() {
				entries, err := store.All(ctx)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, len(thresholds.Defaults()))
			})

			Convey("And listing should be ordered by name", func() {
				entries, err := store.All(ctx)
				So(err, ShouldBeNil)
				for i := 1; i < len(entries); i++ {
					So(entries[i-1].Name, ShouldBeLessThan, entries[i].Name)
				}
			})

			Convey("And seeding again should not overwrite tuned values", func() {
				_, err := store.Upsert(ctx, thresholds.NameTiltDanger, 9.5)
				So(err, ShouldBeNil)

				So(store.Seed(ctx, thresholds.Defaults()), ShouldBeNil)

				snap, err := store.Snapshot(ctx)
				So(err, ShouldBeNil)
				So(snap.TiltDanger, ShouldEqual, 9.5)
			})
		})

		Convey("When upserting a value", func() {
			entry, err := store.Upsert(ctx, thresholds.NameWeightTilt, 0.7)
			So(err, ShouldBeNil)
			So(entry.Name, ShouldEqual, thresholds.NameWeightTilt)
			So(entry.Value, ShouldEqual, 0.7)

			Convey("Then the very next snapshot should observe it", func() {
				snap, err := store.Snapshot(ctx)
				So(err, ShouldBeNil)
				So(snap.WeightTilt, ShouldEqual, 0.7)
			})

			Convey("And a later upsert should win", func() {
				_, err := store.Upsert(ctx, thresholds.NameWeightTilt, 0.4)
				So(err, ShouldBeNil)

				snap, err := store.Snapshot(ctx)
				So(err, ShouldBeNil)
				So(snap.WeightTilt, ShouldEqual, 0.4)
			})
		})

		Convey("When upserting with an empty name", func() {
			_, err := store.Upsert(ctx, "", 1.0)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, thresholds.ErrEmptyName), ShouldBeTrue)
			})
		})

		Convey("When snapshotting with nothing stored", func() {
			snap, err := store.Snapshot(ctx)

			Convey("Then every field should carry its default", func() {
				So(err, ShouldBeNil)
				So(snap, ShouldResemble, thresholds.FromMap(nil))
				So(snap.Validate(), ShouldBeNil)
			})
		})
	})
}

func TestSnapshotValidate(t *testing.T) {
	Convey("Given parameter sets with inverted orderings", t, func() {
		cases := []func(*thresholds.Snapshot){
			func(s *thresholds.Snapshot) { s.TiltDanger = s.TiltNormal },
			func(s *thresholds.Snapshot) { s.MoistureNormal = s.MoistureWarning },
			func(s *thresholds.Snapshot) { s.WeightMoisture = -0.1 },
			func(s *thresholds.Snapshot) { s.RiskWarningMax = s.RiskNormalMax },
		}

		Convey("When validating each", func() {
			for _, mutate := range cases {
				snap := thresholds.FromMap(nil)
				mutate(&snap)

				err := snap.Validate()
				So(err, ShouldNotBeNil)
				So(errors.Is(err, thresholds.ErrInvalidThreshold), ShouldBeTrue)
			}
		})
	})
}
