// Command rnutil talks to an RN2483/RN2903 module on a serial port.
//
// Usage:
//
//	rnutil [flags] info
//	rnutil [flags] join-otaa <appeui> <appkey>
//	rnutil [flags] send <port> <hexdata>
//	rnutil [flags] sleep <duration>
//	rnutil [flags] nvm-get <hexaddr>
//	rnutil [flags] nvm-set <hexaddr> <hexbyte>
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dbrgn/rn2xx3"
	"github.com/dbrgn/rn2xx3/protocol"
	"github.com/dbrgn/rn2xx3/serialport"
)

var (
	portName = flag.String("port", "/dev/ttyUSB0", "serial port device")
	baudRate = flag.Int("baud", serialport.DefaultBaudRate, "baud rate")
	model    = flag.String("model", "rn2483", "module model (rn2483 or rn2903)")
	verbose  = flag.Bool("v", false, "enable debug logging")
)

func main() {
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	sp, err := serialport.Open(*portName, serialport.Config{BaudRate: *baudRate})
	if err != nil {
		log.Fatalf("open %s: %v", *portName, err)
	}
	defer sp.Close()

	cfg := rn2xx3.Config{Logger: log}
	var drv *rn2xx3.Driver
	switch *model {
	case "rn2483":
		drv = rn2xx3.NewRN2483(sp, cfg)
	case "rn2903":
		drv = rn2xx3.NewRN2903(sp, cfg)
	default:
		log.Fatalf("unknown model %q", *model)
	}

	// The serial line may carry leftovers from a previous run.
	if err := drv.EnsureKnownState(); err != nil {
		log.Fatalf("module not responding on %s: %v", *portName, err)
	}

	if err := run(drv, log, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func run(drv *rn2xx3.Driver, log *logrus.Logger, cmd string, args []string) error {
	switch cmd {
	case "info":
		return runInfo(drv)
	case "join-otaa":
		return runJoinOTAA(drv, log, args)
	case "send":
		return runSend(drv, log, args)
	case "sleep":
		return runSleep(drv, args)
	case "nvm-get":
		return runNvmGet(drv, args)
	case "nvm-set":
		return runNvmSet(drv, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runInfo(drv *rn2xx3.Driver) error {
	version, err := drv.Version()
	if err != nil {
		return err
	}
	hweui, err := drv.HardwareEUI()
	if err != nil {
		return err
	}
	vdd, err := drv.Vdd()
	if err != nil {
		return err
	}
	dr, err := drv.DataRate()
	if err != nil {
		return err
	}

	fmt.Printf("Version:      %s\n", version)
	fmt.Printf("Hardware EUI: %s\n", hex.EncodeToString(hweui[:]))
	fmt.Printf("Supply:       %d mV\n", vdd)
	fmt.Printf("Data rate:    %d\n", dr)
	return nil
}

// runJoinOTAA uses the hardware EUI as device EUI, joins, and sends one
// test uplink.
func runJoinOTAA(drv *rn2xx3.Driver, log *logrus.Logger, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: join-otaa <appeui> <appkey>")
	}
	var appEUI [8]byte
	if err := parseHex(appEUI[:], args[0]); err != nil {
		return fmt.Errorf("appeui: %w", err)
	}
	var appKey [16]byte
	if err := parseHex(appKey[:], args[1]); err != nil {
		return fmt.Errorf("appkey: %w", err)
	}

	hweui, err := drv.HardwareEUI()
	if err != nil {
		return err
	}
	if err := drv.SetDevEUI(hweui); err != nil {
		return err
	}
	if err := drv.SetAppEUI(appEUI); err != nil {
		return err
	}
	if err := drv.SetAppKey(appKey); err != nil {
		return err
	}

	log.Infof("joining with device EUI %s", hex.EncodeToString(hweui[:]))
	if err := drv.Join(protocol.JoinOTAA); err != nil {
		return err
	}
	log.Infof("joined")

	down, err := drv.Transmit(protocol.Unconfirmed, 1, []byte("hi"))
	if err != nil {
		return err
	}
	if down != nil {
		log.Infof("downlink on port %d: %s", down.Port, hex.EncodeToString(down.Payload))
	}
	return nil
}

func runSend(drv *rn2xx3.Driver, log *logrus.Logger, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: send <port> <hexdata>")
	}
	port, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return fmt.Errorf("port: %w", err)
	}
	payload, err := hex.DecodeString(args[1])
	if err != nil {
		return fmt.Errorf("payload: %w", err)
	}

	down, txErr := drv.Transmit(protocol.Unconfirmed, uint8(port), payload)
	if txErr != nil {
		return txErr
	}
	if down != nil {
		log.Infof("downlink on port %d: %s", down.Port, hex.EncodeToString(down.Payload))
	}
	return nil
}

func runSleep(drv *rn2xx3.Driver, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: sleep <duration>")
	}
	dur, err := time.ParseDuration(args[0])
	if err != nil {
		return err
	}
	return drv.Sleep(dur)
}

func runNvmGet(drv *rn2xx3.Driver, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: nvm-get <hexaddr>")
	}
	addr, err := strconv.ParseUint(args[0], 16, 16)
	if err != nil {
		return err
	}
	val, err := drv.NvmGet(uint16(addr))
	if err != nil {
		return err
	}
	fmt.Printf("%03x: %02x\n", addr, val)
	return nil
}

func runNvmSet(drv *rn2xx3.Driver, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: nvm-set <hexaddr> <hexbyte>")
	}
	addr, err := strconv.ParseUint(args[0], 16, 16)
	if err != nil {
		return err
	}
	val, err := strconv.ParseUint(args[1], 16, 8)
	if err != nil {
		return err
	}
	return drv.NvmSet(uint16(addr), byte(val))
}

func parseHex(dst []byte, s string) error {
	if len(s) != 2*len(dst) {
		return fmt.Errorf("expected %d hex characters", 2*len(dst))
	}
	_, err := hex.Decode(dst, []byte(s))
	return err
}
