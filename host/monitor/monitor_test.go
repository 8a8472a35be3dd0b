package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"irsbeam/core"
)

type nopRegisters struct{}

func (nopRegisters) WriteReg(base, offset, value uint32) error   { return nil }
func (nopRegisters) ReadReg(base, offset uint32) (uint32, error) { return 0, nil }

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, have %d", n, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastSnapshots(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitClients(t, h, 1)

	// Three channels over a 4-tick period, one broadcast per period.
	emitter := &core.SoftPWMEmitter{
		Regs:     nopRegisters{},
		MaxCount: 3,
		MaxTicks: 8,
		OnPeriod: h.OnPeriod,
	}
	if err := emitter.Emit(context.Background(), []core.DutyCycle{1, 2, 4}); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	for _, wantTicks := range []uint64{4, 8} {
		var snap core.WaveformSnapshot
		if err := conn.ReadJSON(&snap); err != nil {
			t.Fatalf("ReadJSON failed: %v", err)
		}
		if snap.Ticks != wantTicks || snap.Counter != 0 {
			t.Errorf("Snapshot ticks=%d counter=%d, expected %d/0", snap.Ticks, snap.Counter, wantTicks)
		}
		// Last tick of the period had counter 3: only duty 4 is still high.
		if snap.Output != 0x4 || len(snap.Levels) != 3 || !snap.Levels[2] || snap.Levels[0] {
			t.Errorf("Unexpected snapshot %+v", snap)
		}
	}
}

func TestClientDisconnect(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitClients(t, h, 1)
	conn.Close()
	waitClients(t, h, 0)

	// Broadcasting with nobody listening is a no-op.
	h.Broadcast(core.WaveformSnapshot{Ticks: 1})
}

func TestResults(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	h.SetResults([]core.ElementResult{
		{Index: 0, PhaseRad: 1.5, Duty: 100},
		{Index: 1, PhaseRad: -0.5, Duty: 200, Clamped: core.ClampVoltageHigh},
	})

	resp, err := http.Get(srv.URL + "/results")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var got []core.ElementResult
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 2 || got[1].Duty != 200 || got[1].Clamped != core.ClampVoltageHigh {
		t.Errorf("Unexpected results %+v", got)
	}
}
