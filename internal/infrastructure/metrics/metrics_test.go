package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/service"
)

type staticStats struct{ devices, connected, inFlight int }

func (s staticStats) Len() int       { return s.devices }
func (s staticStats) Connected() int { return s.connected }
func (s staticStats) InFlight() int  { return s.inFlight }

func TestRecordExchange(t *testing.T) {
	m := New(nil)

	ex := service.Exchange{
		DeviceID: "sw1",
		Kind:     model.KindGroup,
		Op:       model.OpAdd,
		Path:     service.MessagePath,
		Outcome:  service.OutcomeSuccess,
		Latency:  20 * time.Millisecond,
	}
	m.RecordExchange(ex)
	m.RecordExchange(ex)
	m.RecordExchange(service.Exchange{DeviceID: "sw1", Kind: model.KindGroup, Op: model.OpAdd, Path: service.MessagePath, Outcome: service.OutcomeCapacity})

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var success float64
	latencySeries := -1
	for _, mf := range families {
		switch mf.GetName() {
		case "switchd_exchanges_total":
			for _, metric := range mf.GetMetric() {
				for _, l := range metric.GetLabel() {
					if l.GetName() == "outcome" && l.GetValue() == "success" {
						success = metric.GetCounter().GetValue()
					}
				}
			}
		case "switchd_exchange_latency_seconds":
			latencySeries = len(mf.GetMetric())
		}
	}
	if success != 2 {
		t.Errorf("success count = %v, want 2", success)
	}
	if latencySeries != 1 {
		t.Errorf("latency series = %d, want 1", latencySeries)
	}
}

func TestHandler(t *testing.T) {
	m := New(staticStats{devices: 3, connected: 2, inFlight: 5})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"switchd_exchanges_in_flight 5",
		"switchd_devices_connected 2",
		"switchd_devices_configured 3",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
