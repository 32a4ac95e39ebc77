package config

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given no config file", t, func() {
		cfg, err := Load(afero.NewMemMapFs(), "")

		Convey("Defaults should apply", func() {
			So(err, ShouldBeNil)
			So(cfg.Server.Port, ShouldEqual, 35280)
			So(cfg.Server.Origins, ShouldResemble, []string{"*"})
			So(cfg.Saavn.Timeout, ShouldEqual, 15*time.Second)
			So(cfg.Instances.Refresh, ShouldEqual, 5*time.Minute)
			So(cfg.Proxy.Timeout, ShouldEqual, 10*time.Second)
			So(cfg.Feed.Concurrency, ShouldEqual, 3)
			So(cfg.Feed.Database, ShouldEqual, ":memory:")
			So(cfg.Lastfm.APIKey, ShouldBeEmpty)
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given a yaml config file", t, func() {
		fs := afero.NewMemMapFs()
		So(afero.WriteFile(fs, "/etc/music-stream.yaml", []byte(`
server:
  port: 8080
  origins: ["https://a.example", "https://b.example"]
saavn:
  base_url: https://catalog.example/api/
  timeout: 5s
feed:
  sessions:
    demo: [UC1, UC2]
`), 0o644), ShouldBeNil)

		cfg, err := Load(fs, "/etc/music-stream.yaml")

		Convey("File values should override defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Server.Port, ShouldEqual, 8080)
			So(cfg.Server.Origins, ShouldResemble, []string{"https://a.example", "https://b.example"})
			So(cfg.Saavn.BaseURL, ShouldEqual, "https://catalog.example/api")
			So(cfg.Saavn.Timeout, ShouldEqual, 5*time.Second)
			So(cfg.Feed.Sessions["demo"], ShouldResemble, []string{"UC1", "UC2"})
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := Load(afero.NewMemMapFs(), "/nope.yaml")
		So(err, ShouldNotBeNil)
	})
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MUSIC_STREAM_LOGS_LEVEL", "debug")
	t.Setenv("MUSIC_STREAM_SERVER_ORIGINS", "https://a.example, https://b.example")

	Convey("Environment variables should override defaults", t, func() {
		cfg, err := Load(afero.NewMemMapFs(), "")
		So(err, ShouldBeNil)
		So(cfg.Server.Port, ShouldEqual, 9000)
		So(cfg.Logs.Level, ShouldEqual, "debug")
		So(cfg.Server.Origins, ShouldResemble, []string{"https://a.example", "https://b.example"})
	})
}

func TestValidate(t *testing.T) {
	Convey("Validate", t, func() {
		cfg, err := Load(afero.NewMemMapFs(), "")
		So(err, ShouldBeNil)

		cfg.Server.Port = 0
		cfg.Server.RateLimit = -1
		err = cfg.Validate()
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "server.port")
		So(err.Error(), ShouldContainSubstring, "server.rate_limit")
	})
}
