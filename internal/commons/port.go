// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package commons

import (
	"fmt"
	"net"
)

// IsPortInUse reports whether a TCP listener already holds the address and port.
func IsPortInUse(address string, port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		return true
	}
	ln.Close()
	return false
}
