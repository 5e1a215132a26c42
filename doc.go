// Package rn2xx3 is a driver for the Microchip RN2483 and RN2903 LoRaWAN
// modules, speaking their ASCII command set over an abstract non-blocking
// serial transport.
//
// The driver is strictly half-duplex and poll-driven: it never blocks, never
// spawns goroutines, and owns its Transport exclusively until Free returns
// it. Operations that wait for module replies are bounded by a poll-count
// budget rather than wall-clock time, so the driver also works in
// environments without a usable clock.
//
// Typical use:
//
//	drv := rn2xx3.NewRN2483(port, rn2xx3.Config{})
//	if err := drv.EnsureKnownState(); err != nil { ... }
//	eui, err := drv.HardwareEUI()
//	err = drv.SetAppKey(appKey)
//	err = drv.Join(protocol.JoinOTAA)
//	down, err := drv.Transmit(protocol.Unconfirmed, 10, []byte{0x23, 0x42})
//
// Unsolicited module events (late downlinks, join results) that arrive
// while no command is outstanding are available through PollEvents.
//
// The serialport subpackage provides a Transport over a host serial port;
// the fleet subpackage manages a bank of modems.
package rn2xx3
