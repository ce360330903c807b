// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// The supervisor package runs a set of long-lived workers and stops all of
// them when one exits.
package supervisor

import (
	"context"
	"fmt"
)

// A worker runs until the context is canceled or it fails.
// Start must signal ready once the worker is able to serve.
type Worker interface {
	fmt.Stringer
	Start(ctx context.Context, ready chan<- struct{}) error
}
