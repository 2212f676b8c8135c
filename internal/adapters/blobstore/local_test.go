package blobstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/encore/internal/adapters/blobstore"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLocalStore(t *testing.T) {
	Convey("Given a local store rooted in a temp dir", t, func() {
		ctx := context.Background()
		store, err := blobstore.NewLocalStore(t.TempDir())
		So(err, ShouldBeNil)

		Convey("When putting and getting a key", func() {
			err := store.Put(ctx, "raw/batch-1/concerts.csv", []byte("a,b,c"))
			So(err, ShouldBeNil)

			data, err := store.Get(ctx, "raw/batch-1/concerts.csv")

			Convey("Then the bytes should round-trip verbatim", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "a,b,c")
			})
		})

		Convey("When overwriting a key", func() {
			So(store.Put(ctx, "raw/batch-1/x.csv", []byte("old")), ShouldBeNil)
			So(store.Put(ctx, "raw/batch-1/x.csv", []byte("new")), ShouldBeNil)

			data, err := store.Get(ctx, "raw/batch-1/x.csv")

			Convey("Then the last write should win", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "new")
			})
		})

		Convey("When getting a missing key", func() {
			_, err := store.Get(ctx, "raw/missing.csv")

			Convey("Then it should be ErrNotFound", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, blobstore.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When listing a prefix", func() {
			So(store.Put(ctx, "validated/batch-1/a.csv", []byte("1")), ShouldBeNil)
			So(store.Put(ctx, "validated/batch-1/b.csv", []byte("2")), ShouldBeNil)
			So(store.Put(ctx, "validated/batch-2/c.csv", []byte("3")), ShouldBeNil)

			keys, err := store.List(ctx, "validated/batch-1/")

			Convey("Then only keys under the prefix should come back, sorted", func() {
				So(err, ShouldBeNil)
				So(keys, ShouldResemble, []string{
					"validated/batch-1/a.csv",
					"validated/batch-1/b.csv",
				})
			})
		})

		Convey("When listing a prefix with no matches", func() {
			keys, err := store.List(ctx, "aggregated/nope/")

			Convey("Then it should return an empty result without error", func() {
				So(err, ShouldBeNil)
				So(keys, ShouldBeEmpty)
			})
		})
	})
}
