package reindex

import (
	"context"
	"testing"
	"time"

	"github.com/appbaseio/reindex-orchestrator/errors"
	"github.com/appbaseio/reindex-orchestrator/model/reindexop"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLeaseDiscipline(t *testing.T) {
	Convey("Given an operation record with no active lease", t, func() {
		st := newFakeStore()
		op := &reindexop.Operation{IndexName: "logs-2019", Status: reindexop.StatusInProgress}
		So(st.CreateOperation(context.Background(), op), ShouldBeNil)

		Convey("acquireLease stamps Locked and persists it", func() {
			now := time.Now()
			err := acquireLease(context.Background(), st, op, now)
			So(err, ShouldBeNil)
			So(op.Locked.Equal(now), ShouldBeTrue)

			Convey("a second acquire attempt with a fresh now is refused", func() {
				second, _ := st.GetOperation(context.Background(), op.IndexName)
				err := acquireLease(context.Background(), st, second, now.Add(time.Second))
				So(err, ShouldHaveSameTypeAs, &errors.ConflictError{})
			})

			Convey("releaseLease clears Locked", func() {
				So(releaseLease(context.Background(), st, op), ShouldBeNil)
				So(op.Locked.IsZero(), ShouldBeTrue)
			})
		})

		Convey("an abandoned lease older than the window is stealable", func() {
			stale := now().Add(-LeaseWindow - time.Second)
			So(acquireLease(context.Background(), st, op, stale), ShouldBeNil)

			reread, _ := st.GetOperation(context.Background(), op.IndexName)
			err := acquireLease(context.Background(), st, reread, now())
			So(err, ShouldBeNil)
		})
	})
}

func now() time.Time {
	return time.Now()
}
