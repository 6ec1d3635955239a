// File: cmd/client.go
package cmd

import (
	"fmt"

	"go.temporal.io/sdk/client"
)

// dialTemporal opens a client connection using the loaded configuration.
// Callers must Close it.
func dialTemporal() (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  appConfig.Temporal.HostPort,
		Namespace: appConfig.Temporal.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to temporal at %s: %w", appConfig.Temporal.HostPort, err)
	}
	return c, nil
}
