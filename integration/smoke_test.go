//go:build smoke

package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRouter launches one pospf container on network netName, loading the
// given fixture config. The binary is expected to already be built at
// ../pospf (a CI build step, not something this test invokes), mirroring
// how the busybox fixture containers are wired up with a pre-built binary
// rather than built in-test.
func startRouter(ctx context.Context, t *testing.T, netName, fixture string) testcontainers.Container {
	t.Helper()
	binPath, err := filepath.Abs(filepath.Join("..", "pospf"))
	require.NoError(t, err)
	bin, err := os.Open(binPath)
	require.NoError(t, err)
	defer bin.Close()

	cfgPath, err := filepath.Abs(filepath.Join("fixtures", fixture))
	require.NoError(t, err)
	cfg, err := os.Open(cfgPath)
	require.NoError(t, err)
	defer cfg.Close()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:    "busybox:1.37-glibc",
			Networks: []string{netName},
			HostConfigModifier: func(hc *container.HostConfig) {
				hc.CapAdd = []string{"NET_ADMIN"}
			},
			Files: []testcontainers.ContainerFile{
				{Reader: bin, ContainerFilePath: "/pospf", FileMode: 0o700},
				{Reader: cfg, ContainerFilePath: "/router.toml", FileMode: 0o600},
			},
			Cmd:        []string{"/pospf", "run", "-c", "/router.toml", "-v"},
			WaitingFor: wait.ForLog("router started").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	return c
}

// TestTwoRoutersConverge checks that two directly connected routers
// exchange HELLO over UDP and each reports the other as a TWO_WAY neighbor
// on its control port. It does not check LSA flooding or installed routes.
func TestTwoRoutersConverge(t *testing.T) {
	ctx := context.Background()
	net, err := network.New(ctx)
	require.NoError(t, err)
	defer net.Remove(ctx)

	a := startRouter(ctx, t, net.Name, "router-a.toml")
	defer a.Terminate(ctx)
	b := startRouter(ctx, t, net.Name, "router-b.toml")
	defer b.Terminate(ctx)

	// give the hello/dead interval (1s/4s in the fixtures) enough cycles to
	// form the adjacency and flood a self-LSA both ways.
	require.Eventually(t, func() bool {
		out := execNeighbors(ctx, t, a)
		return strings.Contains(out, "router-b") && strings.Contains(out, "TWO_WAY")
	}, 20*time.Second, 500*time.Millisecond, "router-a never saw router-b reach TWO_WAY")

	require.Eventually(t, func() bool {
		out := execNeighbors(ctx, t, b)
		return strings.Contains(out, "router-a") && strings.Contains(out, "TWO_WAY")
	}, 20*time.Second, 500*time.Millisecond, "router-b never saw router-a reach TWO_WAY")
}

func execNeighbors(ctx context.Context, t *testing.T, c testcontainers.Container) string {
	t.Helper()
	_, reader, err := c.Exec(ctx, []string{"/pospf", "neighbors", "--control-socket", "/var/run/p-ospf.sock"})
	require.NoError(t, err)
	buf := make([]byte, 4096)
	n, _ := reader.Read(buf)
	return string(buf[:n])
}
