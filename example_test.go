package rn2xx3_test

import (
	"fmt"

	"github.com/dbrgn/rn2xx3"
	"github.com/dbrgn/rn2xx3/internal/transporttest"
	"github.com/dbrgn/rn2xx3/protocol"
)

func Example() {
	// A scripted transport stands in for a real serial port here; the
	// serialport package provides the real thing.
	tr := transporttest.New()
	tr.QueueRead("0004A30B001C0530\r\n", "ok\r\n", "accepted\r\n", "ok\r\n", "mac_tx_ok\r\n")

	drv := rn2xx3.NewRN2483(tr, rn2xx3.Config{})

	eui, _ := drv.HardwareEUI()
	fmt.Printf("hweui: %x\n", eui)

	_ = drv.Join(protocol.JoinOTAA)
	down, _ := drv.Transmit(protocol.Unconfirmed, 10, []byte{0x23, 0x42})
	fmt.Println("downlink:", down)
	// Output:
	// hweui: 0004a30b001c0530
	// downlink: <nil>
}
