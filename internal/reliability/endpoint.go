package reliability

import "fmt"

// Endpoint identifies a remote peer by address and UDP port.
type Endpoint struct {
	IP   string
	Port int
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.IP, e.Port)
}
