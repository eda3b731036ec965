// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"net"
	"strings"
	"syscall"

	"github.com/Microsoft/go-winio"
)

const pipePrefix = `\\.\pipe\`

func socketControl(_, _ string, _ syscall.RawConn) error {
	return nil
}

func removeStaleSocket(string) error {
	return nil
}

// createPipeListener serves the API on a named pipe. A bare name is placed
// under \\.\pipe\.
func createPipeListener(_, address string) (net.Listener, error) {
	if !strings.HasPrefix(address, pipePrefix) {
		address = pipePrefix + address
	}
	return winio.ListenPipe(address, &winio.PipeConfig{
		InputBufferSize:  64 * 1024,
		OutputBufferSize: 64 * 1024,
	})
}
