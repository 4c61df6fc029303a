// Package rfc connects to SAP systems over native RFC when a driver is
// linked into the binary.
//
// adt-lib ships no driver. A cgo binding to the NW RFC SDK registers itself
// from an init function, in the manner of database/sql drivers:
//
//	import _ "example.com/nwrfc/driver"
package rfc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Goden-Gun/adt-lib/pkg/config"
	log "github.com/Goden-Gun/adt-lib/pkg/logger"
)

var (
	// ErrUnavailable is returned by Connect when no driver is registered.
	ErrUnavailable = errors.New("RFC functionality is not available(enabled)")
	// ErrAmbiguousDriver is returned when several drivers are registered and
	// Params.Driver does not choose one.
	ErrAmbiguousDriver = errors.New("rfc: several drivers registered, set Params.Driver")
	// ErrUnknownDriver is returned for a Params.Driver nobody registered.
	ErrUnknownDriver = errors.New("rfc: unknown driver")
)

// Params identifies the application server and the logon user.
type Params struct {
	Driver   string
	Host     string
	SysNr    string
	Client   string
	User     string
	Password string
}

// ParamsFromConfig copies the connection fields of cfg.
func ParamsFromConfig(cfg config.RFCConfig) Params {
	return Params{
		Host:     cfg.Host,
		SysNr:    cfg.SysNr,
		Client:   cfg.Client,
		User:     cfg.User,
		Password: cfg.Password,
	}
}

// Conn is an open RFC connection.
type Conn interface {
	Call(ctx context.Context, function string, args map[string]any) (map[string]any, error)
	Close() error
}

// Driver opens RFC connections.
type Driver interface {
	Open(ctx context.Context, p Params) (Conn, error)
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes a driver available under name. It panics if name is empty,
// d is nil or name is taken.
func Register(name string, d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if name == "" {
		panic("rfc: Register with empty name")
	}
	if d == nil {
		panic("rfc: Register driver is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("rfc: Register called twice for driver " + name)
	}
	drivers[name] = d
}

// Drivers returns the sorted names of registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Available reports whether RFC can be used.
func Available() bool {
	driversMu.RLock()
	defer driversMu.RUnlock()
	return len(drivers) > 0
}

// Connect opens a connection with the driver named by p.Driver, or the only
// registered driver when p.Driver is empty.
func Connect(ctx context.Context, p Params) (Conn, error) {
	d, err := pick(p.Driver)
	if err != nil {
		return nil, err
	}
	log.WithTrace(ctx).Infof("Connecting to HOST=%s SYSNR=%s CLIENT=%s as %s", p.Host, p.SysNr, p.Client, p.User)
	conn, err := d.Open(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("rfc: connect %s: %w", p.Host, err)
	}
	return conn, nil
}

func pick(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	switch {
	case len(drivers) == 0:
		log.Info("no RFC driver registered")
		return nil, ErrUnavailable
	case name != "":
		d, ok := drivers[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
		}
		return d, nil
	case len(drivers) > 1:
		return nil, ErrAmbiguousDriver
	}
	for _, d := range drivers {
		return d, nil
	}
	return nil, ErrUnavailable
}

// unregisterAll drops every driver. Used by tests.
func unregisterAll() {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers = make(map[string]Driver)
}
