//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

// okrServer manages a running okrpulse server process.
type okrServer struct {
	cmd     *exec.Cmd
	dataDir string
	address string
	apiKey  string
	logFile string
}

// startOKRPulse launches the binary on dataDir and waits for it to become healthy.
// The server is configured entirely via environment variables.
func startOKRPulse(t *testing.T, dataDir string) *okrServer {
	t.Helper()
	requireOKRPulse(t)

	port := freePort(t)
	s := &okrServer{
		dataDir: dataDir,
		address: fmt.Sprintf("127.0.0.1:%d", port),
		apiKey:  "e2e-test-api-key",
		logFile: filepath.Join(dataDir, fmt.Sprintf("okrpulse-%d.log", port)),
	}

	cmd := exec.Command(okrpulseBin)
	cmd.Env = append(os.Environ(),
		"OKRPULSE_PORT="+strconv.Itoa(port),
		"OKRPULSE_DB_PATH="+s.dbPath(),
		"OKRPULSE_API_KEY="+s.apiKey,
		"OKRPULSE_CONFIG_PATH="+filepath.Join(dataDir, "nonexistent.yaml"),
		"OKRPULSE_BACKUP_INTERVAL=1h",
		"OKRPULSE_LOG_LEVEL=debug",
		"OPENAI_API_KEY=",
	)

	lf, err := os.Create(s.logFile)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	cmd.Stdout = lf
	cmd.Stderr = lf

	if err := cmd.Start(); err != nil {
		lf.Close()
		t.Fatalf("start okrpulse: %v", err)
	}
	s.cmd = cmd

	t.Cleanup(func() {
		s.stop()
		lf.Close()
	})

	if err := s.waitHealthy(10 * time.Second); err != nil {
		logs, _ := os.ReadFile(s.logFile)
		t.Fatalf("okrpulse not healthy: %v\n%s", err, logs)
	}
	return s
}

func (s *okrServer) dbPath() string {
	return filepath.Join(s.dataDir, "okrpulse.db")
}

func (s *okrServer) stop() {
	if s.cmd != nil && s.cmd.Process != nil && s.cmd.ProcessState == nil {
		_ = s.cmd.Process.Signal(os.Interrupt)
		_ = s.cmd.Wait()
	}
}

func (s *okrServer) baseURL() string {
	return "http://" + s.address
}

func (s *okrServer) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := s.baseURL() + "/api/v1/health"

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("okrpulse not healthy after %s", timeout)
}

// do sends an authenticated JSON request as userID and decodes a 2xx body into out.
func (s *okrServer) do(t *testing.T, method, path, userID string, body, out any) int {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal %s %s: %v", method, path, err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.baseURL()+path, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if out != nil && resp.StatusCode < 300 {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("%s %s: decode %s: %v", method, path, data, err)
		}
	}
	return resp.StatusCode
}

// runCLI runs an okrpulse subcommand against the server's database.
func (s *okrServer) runCLI(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command(okrpulseBin, append(args, "--db", s.dbPath())...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("okrpulse %v: %v\n%s", args, err, out)
	}
	return string(out)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
