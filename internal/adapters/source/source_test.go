package source_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cutflow/internal/adapters/source"
	"github.com/okian/cutflow/internal/adapters/source/arrowio"
	"github.com/okian/cutflow/internal/domain/model"
)

func TestOpen(t *testing.T) {
	Convey("Given inputs of several kinds", t, func() {
		dir := t.TempDir()

		Convey("Unknown extensions are refused", func() {
			_, err := source.Open(filepath.Join(dir, "events.csv"), "")
			So(errors.Is(err, source.ErrUnsupportedInput), ShouldBeTrue)
		})

		Convey("Missing ROOT files surface the open error", func() {
			_, err := source.Open(filepath.Join(dir, "missing.root"), "mini")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, source.ErrUnsupportedInput), ShouldBeFalse)
		})

		Convey("Arrow files open whatever the extension case", func() {
			path := filepath.Join(dir, "events.FEATHER")
			f, err := os.Create(path)
			So(err, ShouldBeNil)
			w, err := arrowio.NewWriter(f)
			So(err, ShouldBeNil)
			So(w.Write(&model.Event{}), ShouldBeNil)
			So(w.Close(), ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			src, err := source.Open(path, "ignored")
			So(err, ShouldBeNil)
			So(src.Entries(), ShouldEqual, int64(1))
			So(src.Close(), ShouldBeNil)
		})
	})
}
