package service

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/encore/internal/adapters/blobstore"
	"github.com/okian/encore/pkg/logger"
)

const sampleCSV = `nama_konser,lokasi,tanggal,harga_tiket,biaya_transport,biaya_akomodasi,merchandise,total_pengeluaran
NCT Dream Jakarta,Jakarta,2025-03-15,850,120,200,150,1320
Seventeen Bandung,Bandung,2025-04-02,650,80,150,100,980
Blackpink Surabaya,Surabaya,2025-05-20,1200,300,400,250,2150
`

const partlyBadCSV = `nama_konser,lokasi,tanggal,harga_tiket,biaya_transport,biaya_akomodasi,merchandise,total_pengeluaran
NCT Dream Jakarta,Jakarta,2025-03-15,850,120,200,150,1320
Broken Row,Bandung,not-a-date,650,80,150,100,980
`

func newTestService(t *testing.T) *Service {
	t.Helper()

	_ = logger.Init()
	_ = logger.SetLevelString("error")

	store, err := blobstore.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating local store: %v", err)
	}

	svc := New(
		WithStore(store),
		WithLogger(logger.Get()),
		WithTopN(5),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("starting service: %v", err)
	}
	t.Cleanup(svc.Stop)

	return svc
}

func TestServicePipeline(t *testing.T) {
	Convey("Given a started pipeline service over a local store", t, func() {
		svc := newTestService(t)
		ctx := context.Background()

		Convey("When a raw upload is staged", func() {
			handle, err := svc.WriteRaw(ctx, []byte(sampleCSV), "concerts.csv")

			Convey("Then it lands in the raw layer under a fresh batch id", func() {
				So(err, ShouldBeNil)
				So(handle.BatchID, ShouldNotBeEmpty)
				So(handle.Key, ShouldStartWith, "raw/"+handle.BatchID+"/")
				So(handle.Key, ShouldEndWith, ".csv")
				So(handle.SourceName, ShouldEqual, "concerts.csv")
			})

			Convey("And the stored bytes are verbatim", func() {
				So(err, ShouldBeNil)
				data, getErr := svc.store.Get(ctx, handle.Key)
				So(getErr, ShouldBeNil)
				So(string(data), ShouldEqual, sampleCSV)
			})
		})

		Convey("When a staged batch is validated", func() {
			handle, err := svc.WriteRaw(ctx, []byte(sampleCSV), "concerts.csv")
			So(err, ShouldBeNil)

			batch, err := svc.Validate(ctx, handle)

			Convey("Then every well-formed row survives", func() {
				So(err, ShouldBeNil)
				So(batch.Records, ShouldHaveLength, 3)
				So(batch.RejectedCount, ShouldEqual, 0)
				So(batch.Records[0].Name, ShouldEqual, "NCT Dream Jakarta")
				So(batch.Records[0].CostTotal(), ShouldAlmostEqual, 1320)
			})

			Convey("And the validated layer holds the canonical encoding", func() {
				So(err, ShouldBeNil)
				keys, listErr := svc.store.List(ctx, "validated/"+handle.BatchID+"/")
				So(listErr, ShouldBeNil)
				So(keys, ShouldHaveLength, 1)
			})
		})

		Convey("When a batch contains a malformed row", func() {
			handle, err := svc.WriteRaw(ctx, []byte(partlyBadCSV), "concerts.csv")
			So(err, ShouldBeNil)

			batch, err := svc.Validate(ctx, handle)

			Convey("Then the bad row is tallied, not raised", func() {
				So(err, ShouldBeNil)
				So(batch.Records, ShouldHaveLength, 1)
				So(batch.RejectedCount, ShouldEqual, 1)
			})
		})

		Convey("When a validated batch is aggregated", func() {
			handle, err := svc.WriteRaw(ctx, []byte(sampleCSV), "concerts.csv")
			So(err, ShouldBeNil)
			batch, err := svc.Validate(ctx, handle)
			So(err, ShouldBeNil)

			aggregated, err := svc.Aggregate(ctx, batch)

			Convey("Then each record carries batch-relative metrics", func() {
				So(err, ShouldBeNil)
				So(aggregated.Entries, ShouldHaveLength, 3)

				// Cheapest batch entry has the best efficiency.
				So(aggregated.Entries[1].TotalCost, ShouldAlmostEqual, 980)
				So(aggregated.Entries[1].CostEfficiency, ShouldBeGreaterThan,
					aggregated.Entries[2].CostEfficiency)
			})

			Convey("And the aggregated layer is written under the batch id", func() {
				So(err, ShouldBeNil)
				keys, listErr := svc.store.List(ctx, "aggregated/"+handle.BatchID+"/")
				So(listErr, ShouldBeNil)
				So(keys, ShouldHaveLength, 1)
			})
		})

		Convey("When a whole upload is ingested in one call", func() {
			aggregated, rejected, err := svc.Ingest(ctx, []byte(sampleCSV), "concerts.csv")

			Convey("Then all three layers are staged", func() {
				So(err, ShouldBeNil)
				So(rejected, ShouldEqual, 0)
				So(aggregated.Entries, ShouldHaveLength, 3)

				for _, prefix := range []string{"raw/", "validated/", "aggregated/"} {
					keys, listErr := svc.store.List(ctx, prefix+aggregated.Handle.BatchID+"/")
					So(listErr, ShouldBeNil)
					So(keys, ShouldHaveLength, 1)
				}
			})
		})
	})
}

func TestServiceRecommend(t *testing.T) {
	Convey("Given an ingested batch", t, func() {
		svc := newTestService(t)
		ctx := context.Background()

		aggregated, _, err := svc.Ingest(ctx, []byte(sampleCSV), "concerts.csv")
		So(err, ShouldBeNil)
		batchID := aggregated.Handle.BatchID

		Convey("When recommendations are requested within budget", func() {
			recs, err := svc.Recommend(ctx, batchID, 1500, 0)

			Convey("Then only affordable concerts come back, ranked", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 2)
				So(recs[0].Rank, ShouldEqual, 1)
				So(recs[0].TotalCost, ShouldBeLessThanOrEqualTo, 1500)
				So(recs[1].Rank, ShouldEqual, 2)
				So(recs[0].Score, ShouldBeGreaterThanOrEqualTo, recs[1].Score)
			})
		})

		Convey("When the budget covers nothing", func() {
			recs, err := svc.Recommend(ctx, batchID, 100, 0)

			Convey("Then an empty ranking is returned without error", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldBeEmpty)
			})
		})

		Convey("When the batch id is unknown", func() {
			_, err := svc.Recommend(ctx, "no-such-batch", 1500, 0)

			Convey("Then the miss maps to a not-found error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, blobstore.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a stage has been re-run", func() {
			// Push the clock forward so the second aggregated object sorts
			// after the first.
			svc.now = func() time.Time { return time.Now().Add(2 * time.Second) }

			handle, err := svc.WriteRaw(ctx, []byte(sampleCSV), "concerts.csv")
			So(err, ShouldBeNil)
			// Reuse the original batch's namespace.
			handle.BatchID = batchID

			batch, err := svc.Validate(ctx, handle)
			So(err, ShouldBeNil)
			_, err = svc.Aggregate(ctx, batch)
			So(err, ShouldBeNil)

			Convey("Then recommendations read the newest aggregated object", func() {
				keys, listErr := svc.store.List(ctx, "aggregated/"+batchID+"/")
				So(listErr, ShouldBeNil)
				So(keys, ShouldHaveLength, 2)

				recs, recErr := svc.Recommend(ctx, batchID, 1500, 0)
				So(recErr, ShouldBeNil)
				So(recs, ShouldHaveLength, 2)
			})
		})
	})
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service without a store", t, func() {
		_ = logger.Init()
		_ = logger.SetLevelString("error")
		svc := New(WithLogger(logger.Get()))

		Convey("When it is started", func() {
			err := svc.Start(context.Background())

			Convey("Then startup fails with the store sentinel", func() {
				So(errors.Is(err, ErrStoreRequired), ShouldBeTrue)
			})
		})
	})

	Convey("Given a started service", t, func() {
		svc := newTestService(t)

		Convey("When stats are read after an ingest", func() {
			_, _, err := svc.Ingest(context.Background(), []byte(sampleCSV), "concerts.csv")
			So(err, ShouldBeNil)

			stats := svc.GetStats()

			Convey("Then the counters reflect the pipeline run", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["batchesStaged"], ShouldEqual, int64(1))
				So(stats["rowsValidated"], ShouldEqual, int64(3))
				So(stats["rowsRejected"], ShouldEqual, int64(0))
			})
		})

		Convey("When Start is called twice", func() {
			err := svc.Start(context.Background())

			Convey("Then the second call is a no-op", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}
