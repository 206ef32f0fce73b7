//go:build !linux && !windows

package process

func openBackend(int) (backend, error) {
	return nil, ErrUnsupported
}

func findPID(string) (int, error) {
	return 0, ErrUnsupported
}
