// Package identity holds the process-wide service identity stamped on logs.
package identity

import (
	"sync"

	"github.com/rs/xid"
)

var (
	serviceName = "unknown"
	instanceID  = xid.New().String()
	nameOnce    sync.Once
)

// WhoAmI returns the service name and the unique id of this process.
// The service name is "unknown" until SetServiceName is called.
func WhoAmI() (string, string) {
	return serviceName, instanceID
}

// SetServiceName sets the service name. Only the first call has any effect.
// Tests should not call this; rely on the default instead.
func SetServiceName(name string) {
	nameOnce.Do(func() {
		serviceName = name
	})
}
