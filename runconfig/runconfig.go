// Package runconfig extracts the three configuration values the decode
// pipeline's semantics depend on — Op_mode, Fast_Io_en (vco), and scan_id —
// from a container.ConfigProvider. Absence of any of them is fatal: missing
// schema/configuration is unrecoverable, since operating mode governs field
// semantics throughout decode.
package runconfig

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/GasDet-Bonn/tpx3-interpretation/container"
)

// Config holds the resolved run-time parameters for one interpretation run.
type Config struct {
	OpMode   int
	VCO      bool // Fast_Io_en
	ScanID   string
	DataTake bool // ScanID == "DataTake"
}

// Load reads run_config and generalConfig from src and returns the
// resolved Config, or a wrapped error naming the missing key.
func Load(src container.ConfigProvider) (Config, error) {
	general, err := src.GeneralConfig()
	if err != nil {
		return Config{}, errors.Wrap(err, "runconfig: reading generalConfig")
	}
	run, err := src.RunConfig()
	if err != nil {
		return Config{}, errors.Wrap(err, "runconfig: reading run_config")
	}

	opModeRaw, ok := general["Op_mode"]
	if !ok {
		return Config{}, errors.New("runconfig: generalConfig missing required key Op_mode")
	}
	opMode, err := strconv.Atoi(strings.TrimSpace(opModeRaw))
	if err != nil {
		return Config{}, errors.Wrapf(err, "runconfig: Op_mode %q is not an integer", opModeRaw)
	}

	vcoRaw, ok := general["Fast_Io_en"]
	if !ok {
		return Config{}, errors.New("runconfig: generalConfig missing required key Fast_Io_en")
	}
	vco, err := strconv.ParseBool(strings.TrimSpace(vcoRaw))
	if err != nil {
		return Config{}, errors.Wrapf(err, "runconfig: Fast_Io_en %q is not a boolean", vcoRaw)
	}

	scanID, ok := run["scan_id"]
	if !ok {
		return Config{}, errors.New("runconfig: run_config missing required key scan_id")
	}

	return Config{
		OpMode:   opMode,
		VCO:      vco,
		ScanID:   scanID,
		DataTake: scanID == "DataTake",
	}, nil
}
