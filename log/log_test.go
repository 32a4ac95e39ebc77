package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSetup(t *testing.T) {
	Convey("SetupTo", t, func() {
		var buf bytes.Buffer

		Convey("Should honour the level", func() {
			SetupTo(&buf, "warn", false)
			So(logrus.GetLevel(), ShouldEqual, logrus.WarnLevel)
			logrus.Info("hidden")
			So(buf.Len(), ShouldEqual, 0)
		})

		Convey("Should fall back to info", func() {
			SetupTo(&buf, "loud", false)
			So(logrus.GetLevel(), ShouldEqual, logrus.InfoLevel)
		})

		Convey("Should emit json", func() {
			SetupTo(&buf, "info", true)
			logrus.WithField("instance", "https://a").Info("probe")
			So(buf.String(), ShouldContainSubstring, `"instance":"https://a"`)
		})

		Reset(func() {
			SetupTo(&bytes.Buffer{}, "info", false)
		})
	})
}
