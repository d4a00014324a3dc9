// Package netip detects the address peers on the LAN can reach us at.
package netip

import "net"

// LocalIP returns the IP of the interface used for outbound traffic, which
// on a typical home or office network is the LAN address. The dial is UDP so
// no packet is actually sent; if the machine is offline we fall back to
// loopback.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
