// Package monitoring turns a set of running experiments into a small web
// server. The embedded status page shows run progress, resource usage, and
// run details, and allows pausing and resuming runners.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling endpoints.
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/qsimlab/groverlab/monitoring/web"
)

// A Run is a named, controllable unit of work registered with the
// monitor. experiment.Experiment implements it.
type Run interface {
	Name() string
	Pause()
	Continue()
}

// Monitor serves the status page and control API for registered runs.
type Monitor struct {
	portNumber int
	listener   net.Listener
	server     *http.Server

	runsLock sync.Mutex
	runs     []Run

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port the monitor listens on. Ports below 1000
// are rejected and replaced with a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is not allowed for the monitoring server. "+
				"Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterRun registers a run to be monitored.
func (m *Monitor) RegisterRun(r Run) {
	m.runsLock.Lock()
	defer m.runsLock.Unlock()

	m.runs = append(m.runs, r)
}

// CreateProgressBar creates a bar shown on the status page.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the status page.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// StartServer starts serving the status page and API.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	fs := web.GetAssets()
	fServer := http.FileServer(fs)
	r.HandleFunc("/api/runs", m.listRuns)
	r.HandleFunc("/api/run/{name}", m.runDetail)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/pause/{name}", m.pauseRun)
	r.HandleFunc("/api/continue/{name}", m.continueRun)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.listener = listener
	m.server = &http.Server{Handler: r}

	fmt.Fprintf(os.Stderr,
		"Monitoring experiments with http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		serveErr := m.server.Serve(listener)
		if serveErr != nil && serveErr != http.ErrServerClosed {
			dieOnErr(serveErr)
		}
	}()
}

// StopServer shuts the server down.
func (m *Monitor) StopServer() {
	if m.server == nil {
		return
	}

	err := m.server.Close()
	dieOnErr(err)
}

// OpenStatusPage opens the status page in the local browser.
func (m *Monitor) OpenStatusPage() {
	if m.listener == nil {
		return
	}

	url := fmt.Sprintf("http://localhost:%d",
		m.listener.Addr().(*net.TCPAddr).Port)

	err := browser.OpenURL(url)
	dieOnErr(err)
}

func (m *Monitor) listRuns(w http.ResponseWriter, _ *http.Request) {
	m.runsLock.Lock()
	defer m.runsLock.Unlock()

	fmt.Fprint(w, "[")
	for i, run := range m.runs {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "%q", run.Name())
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) runDetail(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	run := m.findRunOr404(w, name)
	if run == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(run)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	RunName   string `json:"run_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]

	req := fieldReq{}
	err := json.Unmarshal([]byte(jsonString), &req)
	dieOnErr(err)

	run := m.findRunOr404(w, req.RunName)
	if run == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(run)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	dieOnErr(err)

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) pauseRun(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	run := m.findRunOr404(w, name)
	if run == nil {
		return
	}

	run.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueRun(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	run := m.findRunOr404(w, name)
	if run == nil {
		return
	}

	run.Continue()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) findRunOr404(w http.ResponseWriter, name string) Run {
	m.runsLock.Lock()
	defer m.runsLock.Unlock()

	for _, run := range m.runs {
		if run.Name() == name {
			return run
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Run not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bytes, err := json.Marshal(m.progressBars)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	data, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(data)
	dieOnErr(err)
}

// walkFields resolves a dotted field path on a run for the field API.
func walkFields(root any, fields string) (reflect.Value, error) {
	elem := reflect.ValueOf(root)
	fieldNames := strings.Split(fields, ".")

	for len(fieldNames) > 0 {
		switch elem.Kind() {
		case reflect.Ptr, reflect.Interface:
			elem = elem.Elem()
		case reflect.Struct:
			elem = elem.FieldByName(fieldNames[0])
			fieldNames = fieldNames[1:]
		case reflect.Slice:
			index, err := strconv.Atoi(fieldNames[0])
			if err != nil {
				return elem, fmt.Errorf("field path %q: %w", fields, err)
			}

			elem = elem.Index(index)
			fieldNames = fieldNames[1:]
		default:
			return elem, fmt.Errorf(
				"field path %q: kind %s not supported", fields, elem.Kind())
		}
	}

	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	return elem, nil
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
