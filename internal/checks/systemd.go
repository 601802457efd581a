package checks

import (
	"context"
	"fmt"

	sd "github.com/coreos/go-systemd/v22/dbus"
)

// SystemdClient reports unit activity, satisfied by the D-Bus
// implementation and by test fakes.
type SystemdClient interface {
	UnitActive(ctx context.Context, unit string) (bool, error)
	Close()
}

type dbusSystemd struct {
	conn *sd.Conn
}

// NewSystemdClient connects to the system D-Bus.
func NewSystemdClient(ctx context.Context) (SystemdClient, error) {
	conn, err := sd.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to systemd: %w", err)
	}
	return &dbusSystemd{conn: conn}, nil
}

func (d *dbusSystemd) UnitActive(ctx context.Context, unit string) (bool, error) {
	prop, err := d.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return false, fmt.Errorf("unit %s: %w", unit, err)
	}
	value, ok := prop.Value.Value().(string)
	return ok && value == "active", nil
}

func (d *dbusSystemd) Close() {
	d.conn.Close()
}

type unavailableSystemd struct {
	err error
}

// UnavailableSystemd is a SystemdClient that fails every query with
// the connection error, so unit checks degrade to CRITICAL lines
// instead of panicking when D-Bus is unreachable.
func UnavailableSystemd(err error) SystemdClient {
	return unavailableSystemd{err: err}
}

func (u unavailableSystemd) UnitActive(ctx context.Context, unit string) (bool, error) {
	return false, fmt.Errorf("systemd unavailable: %w", u.err)
}

func (u unavailableSystemd) Close() {}
