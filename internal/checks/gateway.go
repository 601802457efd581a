package checks

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/versity/scoutam-checks/internal/nrpe"
)

// GatewayKind selects which S3 gateway flavor to check.
type GatewayKind string

const (
	GatewayVersity GatewayKind = "versitygw"
	GatewayScout   GatewayKind = "scoutgw"
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Gateway checks that every configured S3 gateway instance has an
// active service unit. A node without the gateway binary installed is
// OK: gateways are optional.
func (c *Checker) Gateway(ctx context.Context, kind GatewayKind) nrpe.Result {
	var result nrpe.Result

	name := "VersityGW"
	confDir := c.cfg.VersityGWConfDir
	unitPrefix := c.cfg.VersityGWUnit
	if kind == GatewayScout {
		name = "ScoutGW"
		confDir = c.cfg.ScoutGWConfDir
		unitPrefix = c.cfg.ScoutGWUnit
	}

	if _, err := lookPath(string(kind)); err != nil {
		result.Add(nrpe.StatusOK, "%s is not installed, skipping check", name)
		return result
	}

	if info, err := os.Stat(confDir); err != nil || !info.IsDir() {
		return result
	}

	entries, err := os.ReadDir(confDir)
	if err != nil {
		result.Add(nrpe.StatusCritical, "%s cannot access configuration directory %s: %v", name, confDir, err)
		return result
	}

	var configs []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".conf") && entry.Name() != "example.conf" {
			configs = append(configs, entry.Name())
		}
	}

	if len(configs) == 0 {
		result.Add(nrpe.StatusWarning, "No %s configurations found in %s", name, confDir)
		return result
	}

	for _, conf := range configs {
		base := strings.TrimSuffix(conf, filepath.Ext(conf))
		unit := unitPrefix + base + ".service"

		active, err := c.systemd.UnitActive(ctx, unit)
		if err != nil || !active {
			result.Add(nrpe.StatusCritical, "%s instance %s is not running", name, base)
		} else {
			result.Add(nrpe.StatusOK, "%s instance %s is running", name, base)
		}
	}

	return result
}
