// Package monitoring turns a running simulation into an HTTP server that can
// be inspected and paused from a browser.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"

	"github.com/sarchlab/vsim/monitoring/web"
	"github.com/sarchlab/vsim/sim"
	"github.com/sarchlab/vsim/sim/hooking"
	"github.com/sarchlab/vsim/sim/simulation"
	"github.com/sarchlab/vsim/tracing"
)

// Monitor can turn a simulation into a server and allows external monitoring
// and controlling of the simulation.
//
// The monitor is a scheduler hook. It holds a lock while each callback runs,
// and the HTTP handlers take the same lock before reading kernel state, so
// the handlers only observe the simulation between callbacks.
//
// A process started or resumed outside a callback, such as a once process
// created before a run, holds the lock until it suspends or finishes.
type Monitor struct {
	simulation  *simulation.Simulation
	trace       *tracing.MemoryTracer
	portNumber  int
	openBrowser bool
	logger      logrus.FieldLogger

	kernelLock sync.Mutex
	inCallback bool
	lockedBy   *sim.Process

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
	timeBar          *ProgressBar

	server *http.Server
}

// NewMonitor creates a Monitor for the simulation and hooks it to the
// simulation's scheduler.
func NewMonitor(s *simulation.Simulation) *Monitor {
	m := &Monitor{
		simulation: s,
		logger:     logrus.StandardLogger(),
	}

	s.Scheduler().AcceptHook(m)

	return m
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.WithField("port", portNumber).
			Warn("port not allowed for the monitoring server, using a random port")

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithTracer sets the tracer whose records are served on /api/trace.
func (m *Monitor) WithTracer(t *tracing.MemoryTracer) *Monitor {
	m.trace = t
	return m
}

// WithBrowser makes StartServer open the monitor page in a browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// WithLogger sets the logger of the monitor.
func (m *Monitor) WithLogger(logger logrus.FieldLogger) *Monitor {
	m.logger = logger
	return m
}

// Func implements hooking.Hook.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosBeforeCallback:
		m.kernelLock.Lock()
		m.inCallback = true
	case sim.HookPosAfterCallback:
		if m.timeBar != nil {
			m.timeBar.SetFinished(uint64(ctx.Item.(sim.CallbackInfo).Time))
		}

		m.inCallback = false
		m.kernelLock.Unlock()
	case sim.HookPosProcessStart, sim.HookPosProcessResume:
		if !m.inCallback && m.lockedBy == nil {
			m.kernelLock.Lock()
			m.lockedBy = ctx.Item.(*sim.Process)
		}
	case sim.HookPosProcessSuspend, sim.HookPosProcessFinish:
		if m.lockedBy != nil && m.lockedBy == ctx.Item.(*sim.Process) {
			m.lockedBy = nil
			m.kernelLock.Unlock()
		}
	}
}

// TrackTime creates a progress bar that follows the virtual time up to
// horizon.
func (m *Monitor) TrackTime(horizon sim.VTime) *ProgressBar {
	m.timeBar = m.CreateProgressBar("virtual time", uint64(horizon))
	return m.timeBar
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseScheduler)
	r.HandleFunc("/api/continue", m.continueScheduler)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/states", m.listStates)
	r.HandleFunc("/api/state/{name}", m.stateDetails)
	r.HandleFunc("/api/state/{name}/value", m.stateValue)
	r.HandleFunc("/api/trace", m.listTrace)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts serving in the background and returns the URL of the
// monitor page.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", errors.Wrap(err, "start monitoring server")
	}

	url := fmt.Sprintf("http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)
	m.logger.WithField("url", url).Info("monitoring simulation")

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.WithError(err).Error("monitoring server stopped")
		}
	}()

	if m.openBrowser {
		browser.Stdout = os.Stderr
		if err := browser.OpenURL(url); err != nil {
			m.logger.WithError(err).Warn("cannot open browser")
		}
	}

	return url, nil
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) pauseScheduler(w http.ResponseWriter, _ *http.Request) {
	m.simulation.Scheduler().Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueScheduler(w http.ResponseWriter, _ *http.Request) {
	m.simulation.Scheduler().Continue()
	w.WriteHeader(http.StatusOK)
}

type nowRsp struct {
	Now    uint64 `json:"now"`
	Paused bool   `json:"paused"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	s := m.simulation.Scheduler()

	m.kernelLock.Lock()
	rsp := nowRsp{Now: uint64(s.CurrentTime())}
	m.kernelLock.Unlock()

	rsp.Paused = s.IsPaused()

	writeJSON(w, rsp)
}

func (m *Monitor) listStates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.simulation.StateNames())
}

func (m *Monitor) stateDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	state := m.simulation.GetStateByName(name)
	if state == nil {
		http.Error(w, "State not found", http.StatusNotFound)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(state)
	serializer.SetMaxDepth(1)

	if field := r.URL.Query().Get("field"); field != "" {
		err := serializer.SetEntryPoint(strings.Split(field, "."))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	var buf bytes.Buffer

	m.kernelLock.Lock()
	err := serializer.Serialize(&buf)
	m.kernelLock.Unlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_, err = w.Write(buf.Bytes())
	dieOnErr(err)
}

type valueRsp struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

func (m *Monitor) stateValue(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	state := m.simulation.GetStateByName(name)
	if state == nil {
		http.Error(w, "State not found", http.StatusNotFound)
		return
	}

	m.kernelLock.Lock()
	rsp := valueRsp{Name: name, Value: state.SaveState()}
	m.kernelLock.Unlock()

	writeJSON(w, rsp)
}

func (m *Monitor) listTrace(w http.ResponseWriter, r *http.Request) {
	if m.trace == nil {
		writeJSON(w, []tracing.Record{})
		return
	}

	records := m.trace.Records()

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit "+limitStr, http.StatusBadRequest)
			return
		}

		if limit < len(records) {
			records = records[len(records)-limit:]
		}
	}

	writeJSON(w, records)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	snapshots := make([]ProgressBarSnapshot, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		snapshots = append(snapshots, b.Snapshot())
	}

	writeJSON(w, snapshots)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	duration := time.Second

	if ms := r.URL.Query().Get("ms"); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil || v <= 0 {
			http.Error(w, "invalid duration "+ms, http.StatusBadRequest)
			return
		}

		duration = time.Duration(v) * time.Millisecond
	}

	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(duration)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(v)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		logrus.Panic(err)
	}
}
