package status

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// Sampling windows for the delta-based probes.
const (
	procSample    = 100 * time.Millisecond
	cpuSample     = 100 * time.Millisecond
	perCoreSample = 200 * time.Millisecond
	topSample     = 150 * time.Millisecond

	maxDockerRows = 12
	topCount      = 5
)

// sampleProcess measures this process's CPU over a short window plus
// its resident set.
func sampleProcess() (cpuPct float64, rss uint64, err error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, 0, err
	}
	if _, err := p.Percent(0); err != nil {
		return 0, 0, err
	}
	time.Sleep(procSample)
	cpuPct, err = p.Percent(0)
	if err != nil {
		return 0, 0, err
	}
	mi, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	return cpuPct, mi.RSS, nil
}

// osInfo reports kernel identity with a runtime fallback.
func osInfo() (osName, kernel, arch string) {
	if info, err := host.Info(); err == nil {
		arch = info.KernelArch
		if arch == "" {
			arch = "unknown"
		}
		return info.OS, info.KernelVersion, arch
	}
	return runtime.GOOS, "", runtime.GOARCH
}

func cpuCounts() (phys, logical int) {
	phys, _ = cpu.Counts(false)
	logical, _ = cpu.Counts(true)
	return phys, logical
}

func cpuUtil() (float64, error) {
	vals, err := cpu.Percent(cpuSample, false)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("no cpu sample")
	}
	return vals[0], nil
}

// cpuDetail builds the verbose per-core line, prefixed with load
// averages where the platform exposes them.
func cpuDetail(logical int) (string, error) {
	per, err := cpu.Percent(perCoreSample, true)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if avg, err := load.Avg(); err == nil {
		threads := float64(logical)
		if threads < 1 {
			threads = 1
		}
		fmt.Fprintf(&b, "Load 1/5/15: `%.2f/%.2f/%.2f` · Norm `%.2f/%.2f/%.2f`\n",
			avg.Load1, avg.Load5, avg.Load15,
			avg.Load1/threads, avg.Load5/threads, avg.Load15/threads)
	}

	if len(per) == 0 {
		b.WriteString("Per-core n/a")
	} else {
		cores := make([]string, len(per))
		for i, v := range per {
			cores[i] = fmt.Sprintf("C%d:%d%%", i, int(v))
		}
		b.WriteString(strings.Join(cores, ", "))
	}
	return b.String(), nil
}

// diskLines lists mounted filesystems with usage. Mounts that cannot be
// statted are skipped.
func diskLines() []string {
	parts, err := disk.Partitions(false)
	if err != nil {
		return nil
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Mountpoint < parts[j].Mountpoint })

	var lines []string
	for _, part := range parts {
		u, err := disk.Usage(part.Mountpoint)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("`%s` %s/%s · %s",
			part.Mountpoint, fmtBytes(float64(u.Used)), fmtBytes(float64(u.Total)), fmtPct(u.UsedPercent)))
	}
	return lines
}

type nicSample struct {
	rx uint64
	tx uint64
	ts time.Time
}

// nicRates computes display rates against the previous sample. Without
// one there is nothing to diff, so both sides show a dash.
func nicRates(prev *nicSample, rx, tx uint64, now time.Time) (string, string) {
	if prev == nil {
		return "-", "-"
	}
	dt := now.Sub(prev.ts).Seconds()
	if dt < 1e-6 {
		dt = 1e-6
	}
	rxRate := (float64(rx) - float64(prev.rx)) / dt
	txRate := (float64(tx) - float64(prev.tx)) / dt
	return fmtBytes(rxRate) + "/s", fmtBytes(txRate) + "/s"
}

// networkLines reports per-NIC throughput since the previous /status
// invocation.
func (c *Cog) networkLines(now time.Time) []string {
	counters, err := psnet.IOCounters(true)
	if err != nil {
		return nil
	}
	sort.Slice(counters, func(i, j int) bool { return counters[i].Name < counters[j].Name })

	c.mu.Lock()
	defer c.mu.Unlock()

	var lines []string
	for _, st := range counters {
		var prev *nicSample
		if sample, ok := c.nicLast[st.Name]; ok {
			prev = &sample
		}
		rx, tx := nicRates(prev, st.BytesRecv, st.BytesSent, now)
		c.nicLast[st.Name] = nicSample{rx: st.BytesRecv, tx: st.BytesSent, ts: now}
		lines = append(lines, fmt.Sprintf("`%s` RX %s TX %s", st.Name, rx, tx))
	}
	return lines
}

type procRow struct {
	CPU  float64
	RSS  uint64
	Name string
	PID  int32
}

// topProcesses samples every process and returns the five heaviest by
// CPU and by memory.
func topProcesses() (topCPU, topMem []procRow) {
	procs, err := process.Processes()
	if err != nil {
		return nil, nil
	}

	type candidate struct {
		p    *process.Process
		name string
	}
	candidates := make([]candidate, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			name = strconv.Itoa(int(p.Pid))
		}
		if _, err := p.Percent(0); err != nil {
			continue
		}
		candidates = append(candidates, candidate{p: p, name: name})
	}
	time.Sleep(topSample)

	rows := make([]procRow, 0, len(candidates))
	for _, cand := range candidates {
		cpuPct, err := cand.p.Percent(0)
		if err != nil {
			continue
		}
		mi, err := cand.p.MemoryInfo()
		if err != nil || mi == nil {
			continue
		}
		rows = append(rows, procRow{CPU: cpuPct, RSS: mi.RSS, Name: cand.name, PID: cand.p.Pid})
	}

	topCPU = append([]procRow(nil), rows...)
	sort.SliceStable(topCPU, func(i, j int) bool { return topCPU[i].CPU > topCPU[j].CPU })
	if len(topCPU) > topCount {
		topCPU = topCPU[:topCount]
	}

	topMem = append([]procRow(nil), rows...)
	sort.SliceStable(topMem, func(i, j int) bool { return topMem[i].RSS > topMem[j].RSS })
	if len(topMem) > topCount {
		topMem = topMem[:topCount]
	}
	return topCPU, topMem
}

func formatProcRows(rows []procRow) string {
	if len(rows) == 0 {
		return "n/a"
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("`%s` PID %d · CPU %d%% · RSS %s", r.Name, r.PID, int(r.CPU), fmtBytes(float64(r.RSS)))
	}
	return strings.Join(lines, "\n")
}

// containerLister is the slice of the Docker API the cog needs.
type containerLister interface {
	ContainerList(ctx context.Context, options types.ContainerListOptions) ([]types.Container, error)
}

func containerName(ct types.Container) string {
	if len(ct.Names) > 0 {
		return strings.TrimPrefix(ct.Names[0], "/")
	}
	if len(ct.ID) >= 12 {
		return ct.ID[:12]
	}
	return ct.ID
}

// dockerLines lists local containers. Any failure, including no daemon
// socket at all, just drops the section.
func (c *Cog) dockerLines(ctx context.Context) []string {
	if c.newDocker == nil {
		return nil
	}
	cli, err := c.newDocker()
	if err != nil {
		return nil
	}
	containers, err := cli.ContainerList(ctx, types.ContainerListOptions{All: true})
	if err != nil {
		return nil
	}
	if len(containers) > maxDockerRows {
		containers = containers[:maxDockerRows]
	}

	lines := make([]string, 0, len(containers))
	for _, ct := range containers {
		lines = append(lines, fmt.Sprintf("`%s` [%s]", containerName(ct), ct.State))
	}
	return lines
}
