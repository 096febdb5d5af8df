//go:build windows

package jupyter

import "os"

func terminate(p *os.Process) error {
	return p.Kill()
}
