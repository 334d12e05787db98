package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func gather(reg *prometheus.Registry, name string) []*dto.Metric {
	mfs, err := reg.Gather()
	So(err, ShouldBeNil)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()
		}
	}
	return nil
}

func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestManagerOptions(t *testing.T) {
	Convey("Given a manager with custom options", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("hep"),
			WithSubsystem("test"),
			WithMetricPrefix("x_"),
			WithHistogramBuckets([]float64{1, 2}),
			WithRefreshInterval(time.Second),
			WithCustomLabels(map[string]string{"site": "cern"}),
			WithPrometheusRegistry(reg),
		)

		Convey("Metric names and labels follow the options", func() {
			m.RecordEventsRead("ggH", 3)
			got := gather(reg, "hep_test_x_events_read_total")
			So(len(got), ShouldEqual, 1)
			So(got[0].GetCounter().GetValue(), ShouldEqual, 3.0)
			So(label(got[0], "site"), ShouldEqual, "cern")
			So(label(got[0], "process"), ShouldEqual, "ggH")
			So(m.RefreshInterval(), ShouldEqual, time.Second)
		})

		Convey("Non-positive or empty options keep defaults", func() {
			d := NewManager(WithNamespace(""), WithRefreshInterval(0), WithPrometheusRegistry(prometheus.NewRegistry()))
			So(d.namespace, ShouldEqual, "cutflow")
			So(d.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})
	})
}

func TestAnalysisMetrics(t *testing.T) {
	Convey("Given a fresh manager", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(reg))

		Convey("Cutflow gauges hold the latest totals per stage", func() {
			m.UpdateCutflowStage("ggH", "no cut", 10.5, 12)
			m.UpdateCutflowStage("ggH", "no cut", 20.5, 24)
			m.UpdateCutflowStage("ggH", "4 leptons", 1.5, 2)

			got := gather(reg, "cutflow_job_cutflow_weighted")
			So(len(got), ShouldEqual, 2)
			for _, g := range got {
				if label(g, "stage") == "no cut" {
					So(g.GetGauge().GetValue(), ShouldEqual, 20.5)
				}
			}
			raw := gather(reg, "cutflow_job_cutflow_events")
			So(len(raw), ShouldEqual, 2)
		})

		Convey("Selected and invalid events are counted per process", func() {
			m.RecordEventsSelected("ZZ", 2)
			m.RecordInvalidWeight("ZZ")
			m.RecordInvalidWeight("ZZ")
			So(gather(reg, "cutflow_job_events_selected_total")[0].GetCounter().GetValue(), ShouldEqual, 2.0)
			So(gather(reg, "cutflow_job_invalid_weights_total")[0].GetCounter().GetValue(), ShouldEqual, 2.0)
		})

		Convey("A disabled manager records nothing", func() {
			reg := prometheus.NewRegistry()
			off := NewManager(WithMetricsEnabled(false), WithPrometheusRegistry(reg))
			off.RecordEventsRead("ggH", 5)
			So(off.Enabled(), ShouldBeFalse)
			So(gather(reg, "cutflow_job_events_read_total"), ShouldBeEmpty)
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Every recorder is safe to call", func() {
			So(func() {
				RecordEventsRead("ggH", 10)
				RecordEventsSelected("ggH", 1)
				RecordInvalidWeight("ggH")
				UpdateCutflowStage("ggH", "no cut", 1, 1)
				UpdatePartitionsPlanned(4)
				RecordPartitionProcessed(12)
				RecordPartitionError("open")
				UpdateRepositoryProcesses(2)
				RecordRepositoryUpdateLatency(1)
				UpdateQueueSize(3)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.3)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerActiveCount(4)
				IncWorkerBusy()
				DecWorkerBusy()
				UpdateWorkerEventsPerSecond(1000)
				RecordWorkerError()
				RecordHTTPRequest("/stats", "GET", "200")
				RecordHTTPRequestDuration("/stats", "GET", "200", 1)
				RecordErrorByComponent("worker", "open")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(8)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("The custom registry exposes them", func() {
			RecordPartitionProcessed(5)
			So(gather(GetRegistry(), "cutflow_job_partitions_processed_total"), ShouldNotBeEmpty)
		})
	})
}
